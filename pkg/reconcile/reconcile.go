// Package reconcile patches a live topology document to match an edited set
// of graph elements.
//
// A reconciliation is a single transaction over the same document value the
// current topology was parsed from: Diff → Mutate Nodes → Mutate Links →
// Mutate Scalars → Done. Mutation is targeted (rename, insert, delete,
// scalar update), so comments, key order and formatting outside the changed
// region are preserved. Precondition failures abort before any mutation;
// serialization happens once, after Done, in the caller.
package reconcile

import (
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/topolab/pkg/document"
	"github.com/matzehuels/topolab/pkg/errors"
	"github.com/matzehuels/topolab/pkg/graphview"
	"github.com/matzehuels/topolab/pkg/topology"
)

// Reconciler drives document-edit transactions. It is stateless apart from
// its logger; each call to Reconcile is one transaction.
type Reconciler struct {
	Logger *log.Logger
}

// NewReconciler creates a Reconciler. A nil logger falls back to
// log.Default().
func NewReconciler(logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.Default()
	}
	return &Reconciler{Logger: logger}
}

// transaction is the working state of one reconciliation.
type transaction struct {
	doc     *document.Document
	prev    *topology.Topology
	next    *graphview.Elements
	nodes   *yaml.Node // topology.nodes mapping
	renames map[string]string
	desired map[string]*graphview.NodeElement // doc key → element
	removed map[string]bool                   // doc keys removed this transaction
}

// Reconcile patches doc so that it describes the node/link set in next.
// prev is the topology that was parsed from doc and shown to the editor.
func (r *Reconciler) Reconcile(doc *document.Document, prev *topology.Topology, next *graphview.Elements) error {
	tx, err := r.begin(doc, prev, next)
	if err != nil {
		return err
	}
	r.diff(tx)
	r.mutateNodes(tx)
	r.mutateLinks(tx)
	r.mutateScalars(tx)
	return nil
}

// begin checks the transaction preconditions. Both failures are fatal and
// happen before any mutation, so an aborted transaction leaves the document
// untouched.
func (r *Reconciler) begin(doc *document.Document, prev *topology.Topology, next *graphview.Elements) (*transaction, error) {
	if doc == nil || doc.Root() == nil {
		return nil, errors.New(errors.CodeMissingDocument, "reconcile requires a live parsed document")
	}

	topoMap := doc.Map("topology")
	if topoMap == nil {
		if v := document.MapValue(doc.Root(), "topology"); v != nil {
			return nil, errors.New(errors.CodeNodesNotAMap, "topology region is not a mapping")
		}
		topoMap = document.Mapping()
		document.SetEntry(doc.Root(), "topology", topoMap)
	}

	nodes := document.MapValue(topoMap, "nodes")
	if nodes != nil && nodes.Kind != yaml.MappingNode {
		return nil, errors.New(errors.CodeNodesNotAMap, "topology.nodes is not a mapping")
	}
	if nodes == nil {
		nodes = document.Mapping()
		document.SetEntry(topoMap, "nodes", nodes)
	}

	return &transaction{
		doc:     doc,
		prev:    prev,
		next:    next,
		nodes:   nodes,
		renames: map[string]string{},
		desired: map[string]*graphview.NodeElement{},
		removed: map[string]bool{},
	}, nil
}

// diff computes the desired document keys and pending renames from the new
// element set. Synthetic elements (groups, annotations) and non-document
// pseudo-endpoints are filtered out; bridge alias elements collapse onto
// their underlying document node.
func (r *Reconciler) diff(tx *transaction) {
	for i := range tx.next.Nodes {
		el := &tx.next.Nodes[i]
		if graphview.SyntheticRole(el.Role) {
			continue
		}

		if el.TargetDocKey != "" {
			// Bridge alias: "<bridgeId>:<iface>" resolving to one document
			// node. A target differing from the id's bridge part is a
			// rename of the underlying node.
			bridgeID, _, _ := strings.Cut(el.ID, ":")
			if bridgeID != "" && bridgeID != el.TargetDocKey {
				tx.renames[bridgeID] = el.TargetDocKey
			}
			tx.desired[el.TargetDocKey] = el
			continue
		}

		if topology.IsSpecialEndpointID(el.ID) {
			// Pseudo-endpoints (host, mgmt-net, vxlan remotes, ...) have no
			// document representation.
			continue
		}

		key := el.ID
		if el.Name != "" && el.Name != el.ID {
			tx.renames[el.ID] = el.Name
			key = el.Name
		}
		tx.desired[key] = el
	}
}

// mutateNodes applies renames, removals, and insertions to the
// topology.nodes mapping. Removing a node also removes every link that
// references it (handled in mutateLinks via tx.removed).
func (r *Reconciler) mutateNodes(tx *transaction) {
	for oldKey, newKey := range tx.renames {
		if document.RenameKey(tx.nodes, oldKey, newKey) {
			r.Logger.Debug("renamed node", "from", oldKey, "to", newKey)
		}
	}

	// Removals: document keys absent from the desired set.
	var stale []string
	for i := 0; i+1 < len(tx.nodes.Content); i += 2 {
		key := tx.nodes.Content[i].Value
		if _, ok := tx.desired[key]; !ok {
			stale = append(stale, key)
		}
	}
	for _, key := range stale {
		document.DeleteKey(tx.nodes, key)
		tx.removed[key] = true
		r.Logger.Debug("removed node", "name", key)
	}

	// Insertions: desired keys absent from the document.
	for _, name := range desiredOrder(tx) {
		if document.HasKey(tx.nodes, name) {
			continue
		}
		document.SetEntry(tx.nodes, name, newNodeMapping(tx.desired[name]))
		r.Logger.Debug("added node", "name", name)
	}
}

// desiredOrder returns desired keys in element order so inserted document
// entries follow the editor's ordering.
func desiredOrder(tx *transaction) []string {
	seen := map[string]bool{}
	var order []string
	for i := range tx.next.Nodes {
		el := &tx.next.Nodes[i]
		key := el.DocKey()
		if el.Name != "" && el.TargetDocKey == "" {
			key = el.Name
		}
		if _, ok := tx.desired[key]; !ok || seen[key] {
			continue
		}
		seen[key] = true
		order = append(order, key)
	}
	return order
}

// newNodeMapping builds the document entry for a freshly added node, with
// only the properties the element actually carries.
func newNodeMapping(el *graphview.NodeElement) *yaml.Node {
	m := document.Mapping()
	for _, prop := range []string{"kind", "image", "type", "group"} {
		if v, ok := extraString(el, prop); ok && v != "" {
			document.SetEntry(m, prop, document.Scalar(v))
		}
	}
	return m
}

// mutateScalars updates scalar node properties in place, writing only when
// the new value differs from the current document value to avoid spurious
// diffs.
func (r *Reconciler) mutateScalars(tx *transaction) {
	for key, el := range tx.desired {
		nodeMap := document.MapValue(tx.nodes, key)
		if nodeMap == nil || nodeMap.Kind != yaml.MappingNode {
			continue
		}
		for prop, docKey := range map[string]string{
			"kind":     "kind",
			"image":    "image",
			"type":     "type",
			"group":    "group",
			"mgmtIpv4": "mgmt-ipv4",
			"mgmtIpv6": "mgmt-ipv6",
		} {
			v, ok := extraString(el, prop)
			if !ok {
				continue
			}
			current := document.MapValue(nodeMap, docKey)
			switch {
			case v == "" && current != nil:
				document.DeleteKey(nodeMap, docKey)
			case v != "" && (current == nil || current.Value != v):
				document.SetScalarEntry(nodeMap, docKey, v)
			}
		}
	}
}

// extraString reads a string value from an element's extra data. The second
// return is false when the key is absent or not a string, so absent values
// never count as "set to empty".
func extraString(el *graphview.NodeElement, key string) (string, bool) {
	if el.Extra == nil {
		return "", false
	}
	v, ok := el.Extra[key].(string)
	return v, ok
}
