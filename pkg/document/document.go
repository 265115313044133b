// Package document provides an editable, formatting-preserving representation
// of a topology file.
//
// A Document wraps the yaml.v3 node tree of the source text. All mutation
// happens on that tree with targeted operations (rename a mapping key, change
// a scalar, insert a pair after an anchor), so comments, key order, and
// quoting outside the changed region survive a save untouched.
//
// The Document is exclusively owned by a reconciliation transaction while a
// save is in progress; it is not safe for concurrent mutation.
package document

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
	"lukechampine.com/blake3"

	"github.com/matzehuels/topolab/pkg/errors"
)

// Document is a parsed topology file that supports targeted mutation.
type Document struct {
	root *yaml.Node
}

// Parse decodes source bytes into a Document.
// An empty input yields a document with an empty top-level mapping.
func Parse(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(errors.CodeInvalidInput, err, "parse topology document")
	}
	if root.Kind == 0 {
		// Empty file: synthesize an empty mapping document.
		root = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
		}
	}
	return &Document{root: &root}, nil
}

// Root returns the top-level mapping node of the document.
// Returns nil if the document body is not a mapping.
func (d *Document) Root() *yaml.Node {
	if d == nil || d.root == nil || len(d.root.Content) == 0 {
		return nil
	}
	n := d.root.Content[0]
	if n.Kind != yaml.MappingNode {
		return nil
	}
	return n
}

// Bytes serializes the document with two-space indentation.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "serialize document")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "serialize document")
	}
	return buf.Bytes(), nil
}

// Checksum returns the blake3 hash of the serialized document, used for
// change detection against external writes.
func (d *Document) Checksum() (string, error) {
	data, err := d.Bytes()
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(data)
	return fmt.Sprintf("%x", sum), nil
}

// Map walks nested mappings along path and returns the mapping node at the
// end, or nil if any segment is missing or not a mapping.
func (d *Document) Map(path ...string) *yaml.Node {
	n := d.Root()
	for _, key := range path {
		if n == nil {
			return nil
		}
		n = MapValue(n, key)
		if n != nil && n.Kind == yaml.AliasNode {
			n = n.Alias
		}
		if n == nil || n.Kind != yaml.MappingNode {
			return nil
		}
	}
	return n
}

// Seq walks nested mappings along path and returns the sequence node at the
// end, or nil if missing or not a sequence.
func (d *Document) Seq(path ...string) *yaml.Node {
	if len(path) == 0 {
		return nil
	}
	parent := d.Root()
	if len(path) > 1 {
		parent = d.Map(path[:len(path)-1]...)
	}
	if parent == nil {
		return nil
	}
	n := MapValue(parent, path[len(path)-1])
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	return n
}

// Scalar returns the scalar string value at path and whether it was present
// as a scalar.
func (d *Document) Scalar(path ...string) (string, bool) {
	if len(path) == 0 {
		return "", false
	}
	parent := d.Root()
	if len(path) > 1 {
		parent = d.Map(path[:len(path)-1]...)
	}
	if parent == nil {
		return "", false
	}
	n := MapValue(parent, path[len(path)-1])
	if n == nil || n.Kind != yaml.ScalarNode {
		return "", false
	}
	return n.Value, true
}

// =============================================================================
// Mapping mutation primitives
// =============================================================================

// MapValue returns the value node for key inside mapping, or nil.
func MapValue(mapping *yaml.Node, key string) *yaml.Node {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// keyIndex returns the index of the key node for key, or -1.
func keyIndex(mapping *yaml.Node, key string) int {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return -1
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return i
		}
	}
	return -1
}

// HasKey reports whether mapping contains key.
func HasKey(mapping *yaml.Node, key string) bool {
	return keyIndex(mapping, key) >= 0
}

// SetEntry replaces the value for key, or appends the pair if absent.
// The existing key node (and its comments) is kept on replacement.
func SetEntry(mapping *yaml.Node, key string, value *yaml.Node) {
	if i := keyIndex(mapping, key); i >= 0 {
		mapping.Content[i+1] = value
		return
	}
	mapping.Content = append(mapping.Content, Scalar(key), value)
}

// SetScalarEntry sets key to a plain scalar value, creating the pair if
// needed. Existing scalar style (quoting) is preserved on update.
func SetScalarEntry(mapping *yaml.Node, key, value string) {
	if i := keyIndex(mapping, key); i >= 0 {
		v := mapping.Content[i+1]
		if v.Kind == yaml.ScalarNode {
			v.Value = value
			v.Tag = "!!str"
			return
		}
		mapping.Content[i+1] = Scalar(value)
		return
	}
	mapping.Content = append(mapping.Content, Scalar(key), Scalar(value))
}

// DeleteKey removes the key/value pair for key. Returns true if removed.
func DeleteKey(mapping *yaml.Node, key string) bool {
	i := keyIndex(mapping, key)
	if i < 0 {
		return false
	}
	mapping.Content = append(mapping.Content[:i], mapping.Content[i+2:]...)
	return true
}

// RenameKey renames a mapping key in place. The value node, its comments, and
// the pair's position in the document are untouched. Returns false if oldKey
// is absent or newKey already exists.
func RenameKey(mapping *yaml.Node, oldKey, newKey string) bool {
	if HasKey(mapping, newKey) {
		return false
	}
	i := keyIndex(mapping, oldKey)
	if i < 0 {
		return false
	}
	mapping.Content[i].Value = newKey
	return true
}

// InsertAfter inserts key/value immediately after anchorKey's pair.
// Returns false (no-op) if the anchor cannot be found.
func InsertAfter(mapping *yaml.Node, anchorKey, key string, value *yaml.Node) bool {
	i := keyIndex(mapping, anchorKey)
	if i < 0 {
		return false
	}
	at := i + 2
	pair := []*yaml.Node{Scalar(key), value}
	mapping.Content = append(mapping.Content[:at], append(pair, mapping.Content[at:]...)...)
	return true
}

// =============================================================================
// Sequence mutation primitives
// =============================================================================

// AppendSeq appends a node to a sequence.
func AppendSeq(seq, n *yaml.Node) {
	seq.Content = append(seq.Content, n)
}

// RemoveSeqFunc removes every sequence element for which match returns true.
// Returns the number of removed elements.
func RemoveSeqFunc(seq *yaml.Node, match func(*yaml.Node) bool) int {
	if seq == nil || seq.Kind != yaml.SequenceNode {
		return 0
	}
	kept := seq.Content[:0]
	removed := 0
	for _, n := range seq.Content {
		if match(n) {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	seq.Content = kept
	return removed
}

// =============================================================================
// Node constructors
// =============================================================================

// Scalar builds a plain string scalar node.
func Scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

// QuotedScalar builds a double-quoted string scalar node. Empty strings must
// be quoted on insertion so they round-trip as strings rather than nulls.
func QuotedScalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value, Style: yaml.DoubleQuotedStyle}
}

// IntScalar builds an integer scalar node.
func IntScalar(value int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprintf("%d", value)}
}

// Mapping builds an empty mapping node.
func Mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

// Sequence builds an empty sequence node.
func Sequence() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
}

// FlowSequence builds a flow-style sequence of plain scalars, e.g.
// ["node1:eth0", "node2:eth0"].
func FlowSequence(values ...string) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
	for _, v := range values {
		seq.Content = append(seq.Content, Scalar(v))
	}
	return seq
}
