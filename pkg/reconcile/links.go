package reconcile

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/topolab/pkg/document"
	"github.com/matzehuels/topolab/pkg/graphview"
	"github.com/matzehuels/topolab/pkg/topology"
)

// mutateLinks diffs the document's links sequence against the edges of the
// new element set. Links are matched by their resolved-endpoint identity
// (order-insensitive for veth); missing links are removed, new links are
// appended with minimal required fields, and existing links only have
// changed scalars rewritten.
func (r *Reconciler) mutateLinks(tx *transaction) {
	links := tx.doc.Seq("topology", "links")

	if links != nil {
		renameLinkEndpoints(links, tx.renames)
	}

	desired := map[string]*topology.Link{}
	var order []string
	for i := range tx.next.Edges {
		l := linkFromEdge(&tx.next.Edges[i])
		if l == nil {
			continue
		}
		// Edges may still carry a node's old name after a rename.
		for j := range l.Endpoints {
			if newName, ok := tx.renames[l.Endpoints[j].Node]; ok {
				l.Endpoints[j].Node = newName
			}
		}
		id := l.Identity()
		if _, ok := desired[id]; !ok {
			desired[id] = l
			order = append(order, id)
		}
	}

	// Removals: document links absent from the desired set, plus anything
	// still referencing a node removed this transaction.
	present := map[string]*yaml.Node{}
	if links != nil {
		document.RemoveSeqFunc(links, func(entry *yaml.Node) bool {
			l := decodeLinkEntry(entry)
			if l == nil {
				return false
			}
			for _, ep := range l.Endpoints {
				if tx.removed[ep.Node] {
					r.Logger.Debug("removed link of deleted node", "node", ep.Node)
					return true
				}
			}
			id := l.Identity()
			if _, ok := desired[id]; !ok {
				r.Logger.Debug("removed link", "identity", id)
				return true
			}
			present[id] = entry
			return false
		})
	}

	// Scalar updates on kept links: only changed fields are rewritten.
	for id, entry := range present {
		updateLinkScalars(entry, desired[id])
	}

	// Additions, in edge order.
	for _, id := range order {
		if _, ok := present[id]; ok {
			continue
		}
		if links == nil {
			topoMap := tx.doc.Map("topology")
			links = document.Sequence()
			document.SetEntry(topoMap, "links", links)
		}
		document.AppendSeq(links, newLinkEntry(desired[id]))
		r.Logger.Debug("added link", "identity", id)
	}
}

// renameLinkEndpoints rewrites link endpoints that reference renamed nodes,
// in both the "node:iface" string form and the mapping form.
func renameLinkEndpoints(links *yaml.Node, renames map[string]string) {
	if len(renames) == 0 {
		return
	}
	for _, entry := range links.Content {
		if entry.Kind != yaml.MappingNode {
			continue
		}
		if eps := document.MapValue(entry, "endpoints"); eps != nil && eps.Kind == yaml.SequenceNode {
			for _, ep := range eps.Content {
				renameEndpointNode(ep, renames)
			}
		}
		if ep := document.MapValue(entry, "endpoint"); ep != nil {
			renameEndpointNode(ep, renames)
		}
	}
}

func renameEndpointNode(ep *yaml.Node, renames map[string]string) {
	switch ep.Kind {
	case yaml.ScalarNode:
		if strings.Count(ep.Value, ":") != 1 {
			return
		}
		node, iface, _ := strings.Cut(ep.Value, ":")
		if newName, ok := renames[node]; ok {
			ep.Value = newName + ":" + iface
		}
	case yaml.MappingNode:
		nodeVal := document.MapValue(ep, "node")
		if nodeVal == nil || nodeVal.Kind != yaml.ScalarNode {
			return
		}
		if newName, ok := renames[nodeVal.Value]; ok {
			nodeVal.Value = newName
		}
	}
}

// decodeLinkEntry classifies one document link entry, or nil when it cannot
// be decoded.
func decodeLinkEntry(entry *yaml.Node) *topology.Link {
	var raw topology.RawLink
	if err := entry.Decode(&raw); err != nil {
		return nil
	}
	return topology.ClassifyLink(raw, 0)
}

// linkFromEdge rebuilds the semantic link an edge element stands for. Edges
// targeting pseudo-endpoints recover their type-specific fields from the
// synthetic target id and the edge's extra data.
func linkFromEdge(edge *graphview.EdgeElement) *topology.Link {
	kind := topology.LinkKind(edge.Kind)
	if kind == "" {
		kind = topology.LinkVeth
	}
	if edge.Source == "" {
		return nil
	}

	l := &topology.Link{Kind: kind, MTU: edge.MTU}

	if !kind.SingleEndpoint() {
		if edge.Target == "" {
			return nil
		}
		l.Endpoints = []topology.Endpoint{
			{Node: edge.Source, Interface: edge.SourceIface},
			{Node: edge.Target, Interface: edge.TargetIface},
		}
		return l
	}

	l.Endpoints = []topology.Endpoint{{Node: edge.Source, Interface: edge.SourceIface}}

	// "host:eth7" → eth7; "vxlan:2001:db8::1" → 2001:db8::1.
	_, qualifier, _ := strings.Cut(edge.Target, ":")
	switch kind {
	case topology.LinkHost, topology.LinkMgmtNet, topology.LinkMacvlan:
		l.HostInterface = firstNonEmpty(extraStr(edge, "hostInterface"), qualifier)
	case topology.LinkVxlan, topology.LinkVxlanStitch:
		l.Remote = firstNonEmpty(extraStr(edge, "remote"), qualifier)
		l.VNI = extraInt(edge, "vni")
		l.UDPPort = extraInt(edge, "udpPort")
		l.SrcPort = extraInt(edge, "srcPort")
	}
	return l
}

// newLinkEntry builds the document entry for a new link with minimal
// required fields: brief endpoints form for veth, extended form for typed
// links, MTU only when explicitly set.
func newLinkEntry(l *topology.Link) *yaml.Node {
	m := document.Mapping()

	if l.Kind == topology.LinkVeth {
		document.SetEntry(m, "endpoints",
			document.FlowSequence(l.Endpoints[0].String(), l.Endpoints[1].String()))
		if l.MTU != 0 {
			document.SetEntry(m, "mtu", document.IntScalar(l.MTU))
		}
		return m
	}

	document.SetEntry(m, "type", document.Scalar(string(l.Kind)))
	document.SetEntry(m, "endpoint", document.Scalar(l.Endpoints[0].String()))
	switch l.Kind {
	case topology.LinkHost, topology.LinkMgmtNet, topology.LinkMacvlan:
		if l.HostInterface != "" {
			document.SetEntry(m, "host-interface", document.Scalar(l.HostInterface))
		}
	case topology.LinkVxlan, topology.LinkVxlanStitch:
		document.SetEntry(m, "remote", document.Scalar(l.Remote))
		document.SetEntry(m, "vni", document.IntScalar(l.VNI))
		document.SetEntry(m, "udp-port", document.IntScalar(l.UDPPort))
		if l.SrcPort != 0 {
			document.SetEntry(m, "src-port", document.IntScalar(l.SrcPort))
		}
	}
	if l.MTU != 0 {
		document.SetEntry(m, "mtu", document.IntScalar(l.MTU))
	}
	return m
}

// updateLinkScalars rewrites only the changed scalar fields of an existing
// link entry. An MTU of zero means "not set" and leaves the document value
// alone.
func updateLinkScalars(entry *yaml.Node, l *topology.Link) {
	if entry.Kind != yaml.MappingNode || l == nil || l.MTU == 0 {
		return
	}
	current := document.MapValue(entry, "mtu")
	if current != nil && current.Kind == yaml.ScalarNode {
		if current.Value != strconv.Itoa(l.MTU) {
			current.Value = strconv.Itoa(l.MTU)
			current.Tag = "!!int"
		}
		return
	}
	document.SetEntry(entry, "mtu", document.IntScalar(l.MTU))
}

func extraStr(edge *graphview.EdgeElement, key string) string {
	if edge.Extra == nil {
		return ""
	}
	s, _ := edge.Extra[key].(string)
	return s
}

// extraInt reads a numeric extra value, tolerating the float64 that JSON
// decoding produces.
func extraInt(edge *graphview.EdgeElement, key string) int {
	if edge.Extra == nil {
		return 0
	}
	switch v := edge.Extra[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
