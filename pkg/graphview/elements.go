// Package graphview projects a semantic topology into visual graph elements.
//
// Elements are the canonical serialization format exchanged with the remote
// graph front end: node elements (including group pseudo-nodes and special
// pseudo-endpoints) and edge elements enriched with container runtime state.
// Group pseudo-nodes and annotation elements have no document counterpart
// and are filtered out again before reconciliation.
package graphview

import (
	"github.com/matzehuels/topolab/pkg/topology"
)

// Roles assigned to node elements. Synthetic roles never reach the document.
const (
	RoleRouter    = "router"
	RoleBridge    = "bridge"
	RoleHost      = "host"
	RoleCloud     = "cloud"
	RoleGroup     = "group"
	RoleFreeText  = "free-text"
	RoleFreeShape = "free-shape"
)

// Edge classification classes combining endpoint runtime state.
const (
	EdgeUp   = "up"
	EdgeDown = "down"
)

// SyntheticRole reports whether a role has no document representation.
func SyntheticRole(role string) bool {
	return role == RoleGroup || role == RoleFreeText || role == RoleFreeShape
}

// NodeElement is the visual projection of one topology node, group
// pseudo-node, or special pseudo-endpoint.
type NodeElement struct {
	ID     string `json:"id" bson:"id"`
	Parent string `json:"parent,omitempty" bson:"parent,omitempty"`
	Role   string `json:"role" bson:"role"`

	// Name is the displayed name. A name differing from ID marks a rename
	// during reconciliation.
	Name string `json:"name,omitempty" bson:"name,omitempty"`

	// TargetDocKey carries the underlying document node key for bridge
	// alias elements of the form "<bridgeId>:<iface>".
	TargetDocKey string `json:"targetDocKey,omitempty" bson:"target_doc_key,omitempty"`

	Position *topology.Position `json:"position,omitempty" bson:"position,omitempty"`
	Extra    map[string]any     `json:"extraData,omitempty" bson:"extra,omitempty"`
}

// DisplayName returns Name if set, otherwise ID.
func (n *NodeElement) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// DocKey returns the document mapping key this element resolves to: the
// alias target for bridge alias nodes, otherwise the element id.
func (n *NodeElement) DocKey() string {
	if n.TargetDocKey != "" {
		return n.TargetDocKey
	}
	return n.ID
}

// EdgeElement is the visual projection of one link.
type EdgeElement struct {
	ID          string         `json:"id" bson:"id"`
	Source      string         `json:"source" bson:"source"`
	Target      string         `json:"target" bson:"target"`
	SourceIface string         `json:"sourceEndpoint,omitempty" bson:"source_iface,omitempty"`
	TargetIface string         `json:"targetEndpoint,omitempty" bson:"target_iface,omitempty"`
	Kind        string         `json:"kind,omitempty" bson:"kind,omitempty"`
	Class       string         `json:"edgeClass,omitempty" bson:"class,omitempty"`
	MTU         int            `json:"mtu,omitempty" bson:"mtu,omitempty"`
	Extra       map[string]any `json:"extraData,omitempty" bson:"extra,omitempty"`
}

// Elements is the full visual projection of one topology refresh.
type Elements struct {
	Nodes []NodeElement `json:"nodes" bson:"nodes"`
	Edges []EdgeElement `json:"edges" bson:"edges"`
}

// Node returns the node element with the given id.
func (e *Elements) Node(id string) (*NodeElement, bool) {
	for i := range e.Nodes {
		if e.Nodes[i].ID == id {
			return &e.Nodes[i], true
		}
	}
	return nil, false
}
