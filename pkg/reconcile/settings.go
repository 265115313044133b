package reconcile

import (
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/topolab/pkg/document"
	"github.com/matzehuels/topolab/pkg/errors"
	"github.com/matzehuels/topolab/pkg/topology"
)

// Settings carries the top-level document fields the settings editor can
// change. Nil pointers mean "leave untouched". For Prefix, an empty string
// is a meaningful value (no prefix at all) and is written quoted so it
// survives a round trip; for Name an empty string deletes the key.
type Settings struct {
	Name   *string           `json:"name,omitempty"`
	Prefix *string           `json:"prefix,omitempty"`
	Mgmt   *topology.MgmtNet `json:"mgmt,omitempty"`
}

// PatchSettings applies the requested settings to the document in two
// phases. Phase one updates or deletes keys in place, which keeps every
// key at its current position. Phase two inserts keys that did not exist,
// anchored near their conventional neighbors: prefix after name, mgmt
// after prefix, falling back to name. When no anchor exists the insert is
// skipped rather than appended at an arbitrary position.
func (r *Reconciler) PatchSettings(doc *document.Document, s Settings) error {
	if doc == nil || doc.Root() == nil {
		return errors.New(errors.CodeMissingDocument, "no document to patch")
	}
	root := doc.Root()
	if root.Kind != yaml.MappingNode {
		return errors.New(errors.CodeMissingDocument, "document root is not a mapping")
	}

	nameExisted := patchName(root, s.Name)
	prefixExisted := patchPrefix(root, s.Prefix)
	mgmtExisted := patchMgmt(root, s.Mgmt)

	if s.Prefix != nil && !prefixExisted {
		if document.InsertAfter(root, "name", "prefix", prefixScalar(*s.Prefix)) {
			r.Logger.Debug("inserted prefix", "value", *s.Prefix)
		}
	}
	if s.Mgmt != nil && !mgmtExisted && !emptyMgmt(s.Mgmt) {
		anchor := "name"
		if document.HasKey(root, "prefix") {
			anchor = "prefix"
		}
		if document.InsertAfter(root, anchor, "mgmt", mgmtMapping(s.Mgmt)) {
			r.Logger.Debug("inserted mgmt section")
		}
	}
	if s.Name != nil && !nameExisted && *s.Name != "" {
		// A document without a name gets one at the very top.
		root.Content = append([]*yaml.Node{
			document.Scalar("name"), document.Scalar(*s.Name),
		}, root.Content...)
		r.Logger.Debug("inserted name", "value", *s.Name)
	}
	return nil
}

// patchName updates or deletes the name key in place and reports whether
// it existed. An empty name means delete.
func patchName(root *yaml.Node, name *string) bool {
	if name == nil {
		return document.HasKey(root, "name")
	}
	if !document.HasKey(root, "name") {
		return false
	}
	if *name == "" {
		document.DeleteKey(root, "name")
	} else {
		document.SetScalarEntry(root, "name", *name)
	}
	return true
}

// patchPrefix updates the prefix key in place. The empty string is kept
// as an explicit, quoted value since it disables container prefixing.
func patchPrefix(root *yaml.Node, prefix *string) bool {
	if prefix == nil {
		return document.HasKey(root, "prefix")
	}
	existing := document.MapValue(root, "prefix")
	if existing == nil {
		return false
	}
	existing.Value = *prefix
	existing.Tag = "!!str"
	if *prefix == "" {
		existing.Style = yaml.DoubleQuotedStyle
	}
	return true
}

// patchMgmt replaces or deletes the mgmt section in place. An empty
// struct means delete.
func patchMgmt(root *yaml.Node, mgmt *topology.MgmtNet) bool {
	if mgmt == nil {
		return document.HasKey(root, "mgmt")
	}
	if !document.HasKey(root, "mgmt") {
		return false
	}
	if emptyMgmt(mgmt) {
		document.DeleteKey(root, "mgmt")
	} else {
		document.SetEntry(root, "mgmt", mgmtMapping(mgmt))
	}
	return true
}

func emptyMgmt(m *topology.MgmtNet) bool {
	return m.Network == "" && m.IPv4Subnet == "" && m.IPv6Subnet == ""
}

func mgmtMapping(m *topology.MgmtNet) *yaml.Node {
	n := document.Mapping()
	if m.Network != "" {
		document.SetEntry(n, "network", document.Scalar(m.Network))
	}
	if m.IPv4Subnet != "" {
		document.SetEntry(n, "ipv4-subnet", document.Scalar(m.IPv4Subnet))
	}
	if m.IPv6Subnet != "" {
		document.SetEntry(n, "ipv6-subnet", document.Scalar(m.IPv6Subnet))
	}
	return n
}

func prefixScalar(v string) *yaml.Node {
	if v == "" {
		return document.QuotedScalar("")
	}
	return document.Scalar(v)
}
