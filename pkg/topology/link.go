package topology

import (
	"sort"
	"strings"
)

// LinkKind is the tagged discriminant of the link variant. Kinds are assigned
// once at parse time by ClassifyLink, so downstream code switches on Kind
// instead of re-inspecting shape.
type LinkKind string

// Link kinds. Veth is the standard two-endpoint link; every other kind has a
// single topology endpoint plus a non-topology pseudo-endpoint.
const (
	LinkVeth        LinkKind = "veth"
	LinkHost        LinkKind = "host"
	LinkMgmtNet     LinkKind = "mgmt-net"
	LinkMacvlan     LinkKind = "macvlan"
	LinkDummy       LinkKind = "dummy"
	LinkVxlan       LinkKind = "vxlan"
	LinkVxlanStitch LinkKind = "vxlan-stitch"
)

// SingleEndpoint reports whether the kind connects one topology node to a
// pseudo-endpoint.
func (k LinkKind) SingleEndpoint() bool {
	return k != LinkVeth && k != ""
}

// Endpoint is one side of a link.
type Endpoint struct {
	Node      string `json:"node"`
	Interface string `json:"interface"`
}

// String renders the endpoint in "node:interface" form, or just the node id
// when no interface is set.
func (e Endpoint) String() string {
	if e.Interface == "" {
		return e.Node
	}
	return e.Node + ":" + e.Interface
}

// Link is one classified topology link. Only the fields relevant to Kind are
// populated; ValidateLink reports the ones that are mandatory and missing.
type Link struct {
	Kind      LinkKind
	Endpoints []Endpoint

	// host, mgmt-net
	HostInterface string

	// vxlan, vxlan-stitch
	Remote  string
	VNI     int
	UDPPort int
	SrcPort int

	// any kind
	MTU  int
	Vars map[string]any

	// Index is the position in the document's links sequence.
	Index int
}

// Identity returns the diff identity of the link. For veth links it is the
// order-insensitive endpoint pair; for single-endpoint kinds it includes the
// kind so two different special links can share an endpoint.
func (l *Link) Identity() string {
	parts := make([]string, 0, len(l.Endpoints))
	for _, ep := range l.Endpoints {
		parts = append(parts, ep.String())
	}
	if l.Kind == LinkVeth || l.Kind == "" {
		sort.Strings(parts)
		return strings.Join(parts, "--")
	}
	return string(l.Kind) + "|" + strings.Join(parts, "--")
}

// First returns the first endpoint, or a zero Endpoint when none exists.
func (l *Link) First() Endpoint {
	if len(l.Endpoints) == 0 {
		return Endpoint{}
	}
	return l.Endpoints[0]
}
