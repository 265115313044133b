// Package topology defines the semantic topology model shared by both data
// directions of the engine: document → graph elements (load/refresh) and
// graph edit → document patch (save). Link classification lives here so both
// directions apply identical rules.
package topology

import (
	"fmt"
	"slices"
)

// Label keys with graph-level meaning. An explicit graph-group/graph-level
// label wins over the node's group shorthand when computing the parent.
const (
	LabelGraphGroup = "graph-group"
	LabelGraphLevel = "graph-level"
	LabelGraphIcon  = "graph-icon"
	LabelGraphPosX  = "graph-posX"
	LabelGraphPosY  = "graph-posY"
)

// Node kinds treated as special regardless of id shape.
const (
	KindBridge    = "bridge"
	KindOVSBridge = "ovs-bridge"
)

// DefaultGroupLevel is the level used when a node declares a group without a
// level label.
const DefaultGroupLevel = 1

// MgmtNet is the lab-wide management network block.
type MgmtNet struct {
	Network    string `json:"network,omitempty" yaml:"network,omitempty"`
	IPv4Subnet string `json:"ipv4-subnet,omitempty" yaml:"ipv4-subnet,omitempty"`
	IPv6Subnet string `json:"ipv6-subnet,omitempty" yaml:"ipv6-subnet,omitempty"`
}

// Position is an explicit canvas position carried in node labels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one topology node as parsed from the document.
type Node struct {
	Name       string
	Kind       string
	Image      string
	Type       string
	Group      string
	GroupLevel int
	MgmtIPv4   string
	MgmtIPv6   string
	Labels     map[string]string
	Slots      []string // declared multi-chassis component slots, in document order
	Position   *Position

	// Index is the stable parse-order integer, used only for display
	// ordering, never identity.
	Index int
}

// GroupID returns the group pseudo-node id for this node, or "" when the
// node declares no group.
func (n *Node) GroupID() (string, bool) {
	group := n.Group
	level := n.GroupLevel
	if g, ok := n.Labels[LabelGraphGroup]; ok && g != "" {
		group = g
	}
	if group == "" {
		return "", false
	}
	if level == 0 {
		level = DefaultGroupLevel
	}
	return fmt.Sprintf("%s:%d", group, level), true
}

// Topology is the semantic model parsed fresh from the document on each
// load. It is an immutable value once built.
type Topology struct {
	Name   string
	Prefix *string
	Mgmt   *MgmtNet
	Nodes  map[string]*Node
	Links  []*Link
}

// FullPrefix returns the container-name prefix for this lab: "<prefix>-<name>"
// by default, just "<name>" when prefix is the empty string, and the literal
// prefix value when it already names the lab.
func (t *Topology) FullPrefix() string {
	if t.Prefix == nil {
		return "clab-" + t.Name
	}
	if *t.Prefix == "" {
		return t.Name
	}
	return *t.Prefix + "-" + t.Name
}

// NodeNames returns node names sorted by parse order.
func (t *Topology) NodeNames() []string {
	names := make([]string, 0, len(t.Nodes))
	for name := range t.Nodes {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		return t.Nodes[a].Index - t.Nodes[b].Index
	})
	return names
}
