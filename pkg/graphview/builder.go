package graphview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/topolab/pkg/multichassis"
	"github.com/matzehuels/topolab/pkg/runtime"
	"github.com/matzehuels/topolab/pkg/topology"
)

// Builder turns a semantic topology plus live container state into graph
// elements. It is stateless apart from its logger; one Builder can serve
// every refresh.
type Builder struct {
	Logger *log.Logger
}

// NewBuilder creates a Builder. A nil logger falls back to log.Default().
func NewBuilder(logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.Default()
	}
	return &Builder{Logger: logger}
}

// Build projects the topology into graph elements. Positions supplies
// annotation-stored node positions for nodes without a document position.
// Malformed links are skipped with a warning, never fatal.
func (b *Builder) Build(topo *topology.Topology, states runtime.StateMap, positions map[string]topology.Position) Elements {
	var out Elements
	if topo == nil {
		return out
	}

	resolver := &multichassis.Resolver{FullPrefix: topo.FullPrefix(), States: states}

	groups := map[string]bool{}
	for _, name := range topo.NodeNames() {
		node := topo.Nodes[name]
		el := b.buildNode(topo, node, states, positions)
		if el.Parent != "" && !groups[el.Parent] {
			groups[el.Parent] = true
			out.Nodes = append(out.Nodes, groupElement(el.Parent, node.Labels))
		}
		out.Nodes = append(out.Nodes, el)
	}

	specials := map[string]bool{}
	for _, link := range topo.Links {
		edge, specialID, ok := b.buildEdge(topo, resolver, states, link)
		if !ok {
			continue
		}
		if specialID != "" && !specials[specialID] {
			specials[specialID] = true
			out.Nodes = append(out.Nodes, specialElement(specialID))
		}
		out.Edges = append(out.Edges, edge)
	}

	return out
}

// buildNode projects one topology node.
func (b *Builder) buildNode(topo *topology.Topology, node *topology.Node, states runtime.StateMap, positions map[string]topology.Position) NodeElement {
	el := NodeElement{
		ID:   node.Name,
		Name: node.Name,
		Role: nodeRole(node),
	}
	if parent, ok := node.GroupID(); ok {
		el.Parent = parent
	}

	if node.Position != nil {
		p := *node.Position
		el.Position = &p
	} else if p, ok := positions[node.Name]; ok {
		el.Position = &p
	}

	// Document-backed properties stay at the top level (the reconciler
	// mirrors them back); runtime enrichment lives under its own key so
	// live values never turn into document overrides. Absent runtime data
	// yields empty fields, not nulls.
	extra := map[string]any{
		"kind":     node.Kind,
		"image":    node.Image,
		"type":     node.Type,
		"group":    node.Group,
		"mgmtIpv4": node.MgmtIPv4,
		"mgmtIpv6": node.MgmtIPv6,
		"index":    node.Index,
	}
	rt := map[string]any{"state": "", "mac": "", "mgmtIpv4": node.MgmtIPv4, "mgmtIpv6": node.MgmtIPv6}
	if state, ok := containerFor(topo, states, node.Name); ok {
		rt["state"] = state.State
		rt["mac"] = state.MAC
		rt["mgmtIpv4"] = firstNonEmpty(node.MgmtIPv4, state.MgmtIPv4)
		rt["mgmtIpv6"] = firstNonEmpty(node.MgmtIPv6, state.MgmtIPv6)
	}
	extra["runtime"] = rt
	el.Extra = extra

	return el
}

// nodeRole derives the element role: explicit icon label first, then a
// kind-based default.
func nodeRole(node *topology.Node) string {
	if role, ok := node.Labels[topology.LabelGraphIcon]; ok && role != "" {
		return role
	}
	switch node.Kind {
	case topology.KindBridge, topology.KindOVSBridge:
		return RoleBridge
	case "linux", "host":
		return RoleHost
	default:
		return RoleRouter
	}
}

// groupElement builds the pseudo-node for one "<group>:<level>" pair. Its
// classes encode label position; it has no document counterpart.
func groupElement(id string, labels map[string]string) NodeElement {
	labelPos := labels["graph-group-label-pos"]
	if labelPos == "" {
		labelPos = "top-center"
	}
	return NodeElement{
		ID:   id,
		Role: RoleGroup,
		Extra: map[string]any{
			"labelPos": labelPos,
		},
	}
}

// specialElement builds the pseudo-node for a non-topology endpoint.
func specialElement(id string) NodeElement {
	role := RoleCloud
	if strings.HasPrefix(id, "bridge:") || strings.HasPrefix(id, "ovs-bridge:") {
		role = RoleBridge
	}
	return NodeElement{ID: id, Name: id, Role: role, Extra: map[string]any{}}
}

// buildEdge projects one link. The returned specialID is non-empty when the
// link required a synthetic pseudo-endpoint node. ok is false when the link
// is malformed; the caller skips it.
func (b *Builder) buildEdge(topo *topology.Topology, resolver *multichassis.Resolver, states runtime.StateMap, link *topology.Link) (EdgeElement, string, bool) {
	ep := link.First()
	if ep.Node == "" {
		b.Logger.Warn("skipping link with missing endpoint", "kind", link.Kind, "index", link.Index)
		return EdgeElement{}, "", false
	}

	if link.Kind.SingleEndpoint() {
		specialID := SpecialEndpointID(link)
		srcState, srcKnown := endpointState(topo, resolver, states, ep)
		edge := EdgeElement{
			ID:          fmt.Sprintf("%s--%s", ep.String(), specialID),
			Source:      ep.Node,
			Target:      specialID,
			SourceIface: ep.Interface,
			// The pseudo-endpoint's own interface is omitted: it is not
			// addressable and its name would be meaningless.
			Kind:  string(link.Kind),
			Class: edgeClass(srcState, srcKnown, "", false),
			MTU:   link.MTU,
			Extra: edgeExtra(topo, resolver, states, link),
		}
		return edge, specialID, true
	}

	if len(link.Endpoints) < 2 {
		b.Logger.Warn("skipping veth link without two endpoints", "index", link.Index)
		return EdgeElement{}, "", false
	}
	src, dst := link.Endpoints[0], link.Endpoints[1]
	if dst.Node == "" {
		b.Logger.Warn("skipping link with missing endpoint", "kind", link.Kind, "index", link.Index)
		return EdgeElement{}, "", false
	}

	srcState, srcKnown := endpointState(topo, resolver, states, src)
	dstState, dstKnown := endpointState(topo, resolver, states, dst)

	edge := EdgeElement{
		ID:          fmt.Sprintf("%s--%s", src.String(), dst.String()),
		Source:      src.Node,
		Target:      dst.Node,
		SourceIface: src.Interface,
		TargetIface: dst.Interface,
		Kind:        string(topology.LinkVeth),
		Class:       edgeClass(srcState, srcKnown, dstState, dstKnown),
		MTU:         link.MTU,
		Extra:       edgeExtra(topo, resolver, states, link),
	}

	// A special endpoint in brief form ("host:eth7" written as a plain
	// endpoint) has no document node of its own; synthesize its pseudo-node.
	// The interface names stay on the edge, they are document truth even
	// when the view hides them.
	var specialID string
	if _, exists := topo.Nodes[src.Node]; !exists && topology.IsSpecialNode(nil, src.Node) {
		specialID = src.Node
	}
	if _, exists := topo.Nodes[dst.Node]; !exists && topology.IsSpecialNode(nil, dst.Node) {
		specialID = dst.Node
	}

	return edge, specialID, true
}

// SpecialEndpointID synthesizes the pseudo-endpoint node id for a
// single-endpoint link.
func SpecialEndpointID(link *topology.Link) string {
	switch link.Kind {
	case topology.LinkHost:
		return qualified("host", link.HostInterface)
	case topology.LinkMgmtNet:
		return qualified("mgmt-net", link.HostInterface)
	case topology.LinkMacvlan:
		return qualified("macvlan", link.HostInterface)
	case topology.LinkVxlan:
		return qualified("vxlan", link.Remote)
	case topology.LinkVxlanStitch:
		return qualified("vxlan-stitch", link.Remote)
	case topology.LinkDummy:
		return "dummy"
	default:
		return string(link.Kind)
	}
}

func qualified(base, qualifier string) string {
	if qualifier == "" {
		return base
	}
	return base + ":" + qualifier
}

// edgeClass combines endpoint runtime states into the edge class. Special
// endpoints never report state, so an unknown side defers to the known one;
// two unknown sides default to up.
func edgeClass(srcState string, srcKnown bool, dstState string, dstKnown bool) string {
	if srcKnown && srcState != runtime.StateUp {
		return EdgeDown
	}
	if dstKnown && dstState != runtime.StateUp {
		return EdgeDown
	}
	return EdgeUp
}

// endpointState resolves the runtime state of one endpoint interface, going
// through the multi-chassis resolver when the direct container lookup or
// interface match fails.
func endpointState(topo *topology.Topology, resolver *multichassis.Resolver, states runtime.StateMap, ep topology.Endpoint) (string, bool) {
	node := topo.Nodes[ep.Node]
	if state, ok := containerFor(topo, states, ep.Node); ok {
		if ifc, ok := state.Interface(ep.Interface); ok {
			return ifc.State, true
		}
	}
	var slots []string
	if node != nil {
		slots = node.Slots
	}
	if m, ok := resolver.ResolveInterface(ep.Node, slots, ep.Interface); ok {
		if state, ok := states[m.ContainerName]; ok {
			if ifc, ok := state.Interface(m.InterfaceName); ok {
				return ifc.State, true
			}
		}
	}
	return "", false
}

// edgeExtra attaches the link's type-specific fields and per-endpoint
// counters. The type fields round-trip through the editor so a saved edge
// set can always be mapped back onto its document entry.
func edgeExtra(topo *topology.Topology, resolver *multichassis.Resolver, states runtime.StateMap, link *topology.Link) map[string]any {
	out := map[string]any{}
	if link.HostInterface != "" {
		out["hostInterface"] = link.HostInterface
	}
	if link.Remote != "" {
		out["remote"] = link.Remote
	}
	if link.VNI != 0 {
		out["vni"] = link.VNI
	}
	if link.UDPPort != 0 {
		out["udpPort"] = link.UDPPort
	}
	if link.SrcPort != 0 {
		out["srcPort"] = link.SrcPort
	}

	stats := map[string]any{}
	for i, ep := range link.Endpoints {
		key := "source"
		if i == 1 {
			key = "target"
		}
		ifc, ok := endpointInterface(topo, resolver, states, ep)
		if !ok || ifc.Stats == nil {
			stats[key] = map[string]any{}
			continue
		}
		stats[key] = map[string]any{
			"rxBytes":   ifc.Stats.RxBytes,
			"txBytes":   ifc.Stats.TxBytes,
			"rxPackets": ifc.Stats.RxPackets,
			"txPackets": ifc.Stats.TxPackets,
		}
	}
	out["stats"] = stats
	return out
}

func endpointInterface(topo *topology.Topology, resolver *multichassis.Resolver, states runtime.StateMap, ep topology.Endpoint) (runtime.InterfaceState, bool) {
	if state, ok := containerFor(topo, states, ep.Node); ok {
		if ifc, ok := state.Interface(ep.Interface); ok {
			return ifc, true
		}
	}
	node := topo.Nodes[ep.Node]
	var slots []string
	if node != nil {
		slots = node.Slots
	}
	if m, ok := resolver.ResolveInterface(ep.Node, slots, ep.Interface); ok {
		if state, ok := states[m.ContainerName]; ok {
			return state.Interface(m.InterfaceName)
		}
	}
	return runtime.InterfaceState{}, false
}

// containerFor finds the runtime state for a node, trying the prefixed
// container name first and the bare node name second.
func containerFor(topo *topology.Topology, states runtime.StateMap, name string) (runtime.ContainerState, bool) {
	if state, ok := states[topo.FullPrefix()+"-"+name]; ok {
		return state, true
	}
	if state, ok := states[name]; ok {
		return state, true
	}
	return runtime.ContainerState{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
