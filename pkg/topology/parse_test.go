package topology

import (
	"testing"

	"github.com/matzehuels/topolab/pkg/document"
	"github.com/matzehuels/topolab/pkg/errors"
)

const parseSample = `name: core-lab
prefix: clab
mgmt:
  network: mgmt
  ipv4-subnet: 172.20.20.0/24
topology:
  nodes:
    spine1:
      kind: nokia_srlinux
      image: ghcr.io/nokia/srlinux:latest
      group: spines
      labels:
        graph-level: "1"
        graph-posX: "100"
        graph-posY: "50"
    leaf1:
      kind: linux
      labels:
        graph-group: leaves
    sros1:
      kind: nokia_sros
      components:
        - slot: A
        - slot: B
    br0:
      kind: bridge
  links:
    - endpoints: ["spine1:e1-1", "leaf1:eth1"]
    - type: vxlan
      endpoint: "leaf1:eth9"
      remote: 192.168.0.5
      vni: 100
      udp-port: 14789
`

func parseSampleTopology(t *testing.T) *Topology {
	t.Helper()
	doc, err := document.Parse([]byte(parseSample))
	if err != nil {
		t.Fatalf("document.Parse: %v", err)
	}
	topo, err := ParseDocument(doc)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	return topo
}

func TestParseDocument(t *testing.T) {
	topo := parseSampleTopology(t)

	if topo.Name != "core-lab" {
		t.Errorf("Name = %q", topo.Name)
	}
	if topo.Prefix == nil || *topo.Prefix != "clab" {
		t.Errorf("Prefix = %v", topo.Prefix)
	}
	if topo.Mgmt == nil || topo.Mgmt.IPv4Subnet != "172.20.20.0/24" {
		t.Errorf("Mgmt = %+v", topo.Mgmt)
	}
	if len(topo.Nodes) != 4 {
		t.Fatalf("nodes = %d, want 4", len(topo.Nodes))
	}
	if len(topo.Links) != 2 {
		t.Fatalf("links = %d, want 2", len(topo.Links))
	}

	spine := topo.Nodes["spine1"]
	if spine.Kind != "nokia_srlinux" || spine.Group != "spines" {
		t.Errorf("spine1 = %+v", spine)
	}
	if spine.Position == nil || spine.Position.X != 100 || spine.Position.Y != 50 {
		t.Errorf("spine1 position = %+v", spine.Position)
	}

	if got := topo.Nodes["sros1"].Slots; len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("sros1 slots = %v", got)
	}

	if topo.Links[0].Kind != LinkVeth {
		t.Errorf("link 0 kind = %q", topo.Links[0].Kind)
	}
	if l := topo.Links[1]; l.Kind != LinkVxlan || l.Remote != "192.168.0.5" || l.VNI != 100 || l.UDPPort != 14789 {
		t.Errorf("link 1 = %+v", l)
	}
}

func TestParseOrderIndex(t *testing.T) {
	topo := parseSampleTopology(t)

	want := []string{"spine1", "leaf1", "sros1", "br0"}
	got := topo.NodeNames()
	if len(got) != len(want) {
		t.Fatalf("NodeNames = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("NodeNames[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGroupPrecedence(t *testing.T) {
	topo := parseSampleTopology(t)

	// Explicit graph-group label wins over group shorthand; spine1 only has
	// the shorthand, leaf1 only the label.
	if id, ok := topo.Nodes["spine1"].GroupID(); !ok || id != "spines:1" {
		t.Errorf("spine1 group id = %q, %v", id, ok)
	}
	if id, ok := topo.Nodes["leaf1"].GroupID(); !ok || id != "leaves:1" {
		t.Errorf("leaf1 group id = %q, %v", id, ok)
	}
	if _, ok := topo.Nodes["br0"].GroupID(); ok {
		t.Error("br0 has a group id without declaring one")
	}

	both := &Node{Group: "shorthand", Labels: map[string]string{
		LabelGraphGroup: "explicit",
		LabelGraphLevel: "3",
	}, GroupLevel: 3}
	if id, _ := both.GroupID(); id != "explicit:3" {
		t.Errorf("explicit label did not win: %q", id)
	}
}

func TestParseNodesNotAMap(t *testing.T) {
	doc, err := document.Parse([]byte("name: bad\ntopology:\n  nodes:\n    - one\n    - two\n"))
	if err != nil {
		t.Fatalf("document.Parse: %v", err)
	}
	_, err = ParseDocument(doc)
	if !errors.Is(err, errors.CodeNodesNotAMap) {
		t.Errorf("err = %v, want nodes-not-a-map", err)
	}
}

func TestParseNilDocument(t *testing.T) {
	_, err := ParseDocument(nil)
	if !errors.Is(err, errors.CodeMissingDocument) {
		t.Errorf("err = %v, want missing-document", err)
	}
}

func TestFullPrefix(t *testing.T) {
	empty := ""
	custom := "lab"

	tests := []struct {
		name string
		topo Topology
		want string
	}{
		{"Default", Topology{Name: "demo"}, "clab-demo"},
		{"Empty", Topology{Name: "demo", Prefix: &empty}, "demo"},
		{"Custom", Topology{Name: "demo", Prefix: &custom}, "lab-demo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.topo.FullPrefix(); got != tt.want {
				t.Errorf("FullPrefix() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLayoutPreset(t *testing.T) {
	topo := parseSampleTopology(t)

	if LayoutPreset(topo, nil) {
		t.Error("preset with unpositioned nodes")
	}

	annotated := map[string]Position{
		"leaf1": {X: 10, Y: 10},
		"sros1": {X: 20, Y: 10},
		"br0":   {X: 30, Y: 10},
	}
	if !LayoutPreset(topo, annotated) {
		t.Error("not preset although every node has a position")
	}

	if LayoutPreset(&Topology{Nodes: map[string]*Node{}}, annotated) {
		t.Error("empty topology reported preset")
	}
}
