package topology

import "strings"

// specialPrefixes are the endpoint-id prefixes that denote non-topology
// pseudo-endpoints.
var specialPrefixes = []string{
	"macvlan:",
	"vxlan:",
	"vxlan-stitch:",
	"bridge:",
	"ovs-bridge:",
}

// IsSpecialEndpointID reports whether id names a non-topology pseudo-endpoint:
// exactly "host" or "mgmt-net", anything beginning with one of the special
// prefixes, or anything equal to or beginning with "dummy".
func IsSpecialEndpointID(id string) bool {
	if id == "host" || id == "mgmt-net" {
		return true
	}
	for _, p := range specialPrefixes {
		if strings.HasPrefix(id, p) {
			return true
		}
	}
	return strings.HasPrefix(id, "dummy")
}

// IsSpecialNode reports whether the node behind id is special. Bridge-kind
// nodes are special regardless of their id shape; node may be nil when the id
// resolves to no topology node.
func IsSpecialNode(node *Node, id string) bool {
	if node != nil && (node.Kind == KindBridge || node.Kind == KindOVSBridge) {
		return true
	}
	return IsSpecialEndpointID(id)
}

// SplitEndpoint normalizes a raw endpoint value into an Endpoint. It accepts
// either a "node:iface" string or a mapping with node/interface keys.
//
// Strings with more than one colon are treated as a single opaque node id
// with an empty interface. Colon-containing identifiers (IPv6-style remotes
// embedded in an endpoint string) therefore never split; see the package
// docs before changing this.
func SplitEndpoint(value any) Endpoint {
	switch v := value.(type) {
	case string:
		if strings.Count(v, ":") == 1 {
			node, iface, _ := strings.Cut(v, ":")
			return Endpoint{Node: node, Interface: iface}
		}
		return Endpoint{Node: v}
	case Endpoint:
		return v
	case map[string]any:
		ep := Endpoint{}
		if s, ok := v["node"].(string); ok {
			ep.Node = s
		}
		if s, ok := v["interface"].(string); ok {
			ep.Interface = s
		}
		return ep
	case map[any]any:
		ep := Endpoint{}
		if s, ok := v["node"].(string); ok {
			ep.Node = s
		}
		if s, ok := v["interface"].(string); ok {
			ep.Interface = s
		}
		return ep
	default:
		return Endpoint{}
	}
}

// RawLink is the decoded shape of one entry in the document's links
// sequence, before classification. Both the brief form (endpoints pair) and
// the extended form (type + single endpoint) decode into it.
type RawLink struct {
	Type          string         `yaml:"type,omitempty"`
	Endpoints     []any          `yaml:"endpoints,omitempty"`
	Endpoint      any            `yaml:"endpoint,omitempty"`
	HostInterface string         `yaml:"host-interface,omitempty"`
	Remote        string         `yaml:"remote,omitempty"`
	VNI           int            `yaml:"vni,omitempty"`
	UDPPort       int            `yaml:"udp-port,omitempty"`
	SrcPort       int            `yaml:"src-port,omitempty"`
	MTU           int            `yaml:"mtu,omitempty"`
	Vars          map[string]any `yaml:"vars,omitempty"`
}

// ClassifyLink turns a raw link into its tagged variant. Classification is
// structural: no explicit type on a two-endpoint link means veth semantics.
// Classification never fails; ValidateLink reports shape violations.
func ClassifyLink(raw RawLink, index int) *Link {
	kind := LinkKind(raw.Type)
	if kind == "" {
		kind = LinkVeth
	}

	l := &Link{
		Kind:          kind,
		HostInterface: raw.HostInterface,
		Remote:        raw.Remote,
		VNI:           raw.VNI,
		UDPPort:       raw.UDPPort,
		SrcPort:       raw.SrcPort,
		MTU:           raw.MTU,
		Vars:          raw.Vars,
		Index:         index,
	}

	if kind.SingleEndpoint() {
		if raw.Endpoint != nil {
			l.Endpoints = []Endpoint{SplitEndpoint(raw.Endpoint)}
		} else if len(raw.Endpoints) > 0 {
			// Extended-type link written with an endpoints list.
			l.Endpoints = []Endpoint{SplitEndpoint(raw.Endpoints[0])}
		}
		return l
	}

	for _, ep := range raw.Endpoints {
		l.Endpoints = append(l.Endpoints, SplitEndpoint(ep))
	}
	return l
}
