package topology

import (
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/topolab/pkg/document"
	"github.com/matzehuels/topolab/pkg/errors"
)

// rawNode is the decoded shape of one node mapping in the document.
type rawNode struct {
	Kind       string            `yaml:"kind,omitempty"`
	Image      string            `yaml:"image,omitempty"`
	Type       string            `yaml:"type,omitempty"`
	Group      string            `yaml:"group,omitempty"`
	MgmtIPv4   string            `yaml:"mgmt-ipv4,omitempty"`
	MgmtIPv6   string            `yaml:"mgmt-ipv6,omitempty"`
	Labels     map[string]string `yaml:"labels,omitempty"`
	Components []struct {
		Slot string `yaml:"slot"`
	} `yaml:"components,omitempty"`
}

// ParseDocument turns a parsed document into a semantic Topology. The
// topology is rebuilt fresh on every load and every external change
// notification; it never aliases document state.
func ParseDocument(doc *document.Document) (*Topology, error) {
	if doc == nil || doc.Root() == nil {
		return nil, errors.New(errors.CodeMissingDocument, "no parsed document available")
	}

	topo := &Topology{Nodes: map[string]*Node{}}
	topo.Name, _ = doc.Scalar("name")

	if prefix, ok := doc.Scalar("prefix"); ok {
		p := prefix
		topo.Prefix = &p
	}

	if mgmt := doc.Map("mgmt"); mgmt != nil {
		var m MgmtNet
		if err := mgmt.Decode(&m); err != nil {
			return nil, errors.Wrap(errors.CodeInvalidInput, err, "decode mgmt block")
		}
		topo.Mgmt = &m
	}

	if topoMap := doc.Map("topology"); topoMap != nil {
		nodesVal := document.MapValue(topoMap, "nodes")
		if nodesVal != nil && nodesVal.Kind != yaml.MappingNode {
			return nil, errors.New(errors.CodeNodesNotAMap, "topology.nodes is not a mapping")
		}
		if nodesVal != nil {
			for i := 0; i+1 < len(nodesVal.Content); i += 2 {
				name := nodesVal.Content[i].Value
				node, err := parseNode(name, nodesVal.Content[i+1], i/2)
				if err != nil {
					return nil, err
				}
				topo.Nodes[name] = node
			}
		}
	}

	if links := doc.Seq("topology", "links"); links != nil {
		for i, entry := range links.Content {
			var raw RawLink
			if err := entry.Decode(&raw); err != nil {
				return nil, errors.Wrap(errors.CodeInvalidInput, err, "decode link %d", i)
			}
			topo.Links = append(topo.Links, ClassifyLink(raw, i))
		}
	}

	return topo, nil
}

func parseNode(name string, value *yaml.Node, index int) (*Node, error) {
	var raw rawNode
	if value.Kind == yaml.MappingNode {
		if err := value.Decode(&raw); err != nil {
			return nil, errors.Wrap(errors.CodeInvalidInput, err, "decode node %s", name)
		}
	}

	node := &Node{
		Name:     name,
		Kind:     raw.Kind,
		Image:    raw.Image,
		Type:     raw.Type,
		Group:    raw.Group,
		MgmtIPv4: raw.MgmtIPv4,
		MgmtIPv6: raw.MgmtIPv6,
		Labels:   raw.Labels,
		Index:    index,
	}
	if node.Labels == nil {
		node.Labels = map[string]string{}
	}
	for _, c := range raw.Components {
		node.Slots = append(node.Slots, c.Slot)
	}

	if lvl, ok := node.Labels[LabelGraphLevel]; ok {
		if n, err := strconv.Atoi(lvl); err == nil {
			node.GroupLevel = n
		}
	}
	node.Position = positionFromLabels(node.Labels)

	return node, nil
}

// positionFromLabels reads the explicit canvas position carried in labels.
// Both coordinates must parse for a position to exist.
func positionFromLabels(labels map[string]string) *Position {
	xs, okX := labels[LabelGraphPosX]
	ys, okY := labels[LabelGraphPosY]
	if !okX || !okY {
		return nil
	}
	x, errX := strconv.ParseFloat(xs, 64)
	y, errY := strconv.ParseFloat(ys, 64)
	if errX != nil || errY != nil {
		return nil
	}
	return &Position{X: x, Y: y}
}

// LayoutPreset reports whether layout is fully preset: true only if every
// node, counting both document positions and position annotations, has an
// explicit position. An empty topology is not preset.
func LayoutPreset(topo *Topology, annotated map[string]Position) bool {
	if topo == nil || len(topo.Nodes) == 0 {
		return false
	}
	for name, node := range topo.Nodes {
		if node.Position != nil {
			continue
		}
		if _, ok := annotated[name]; !ok {
			return false
		}
	}
	return true
}
