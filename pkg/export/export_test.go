package export

import (
	"strings"
	"testing"

	"github.com/matzehuels/topolab/pkg/graphview"
)

func TestToDOT(t *testing.T) {
	els := graphview.Elements{
		Nodes: []graphview.NodeElement{
			{ID: "leaves:1", Role: graphview.RoleGroup},
			{ID: "spine1", Name: "spine1", Role: graphview.RoleRouter},
			{ID: "leaf1", Name: "leaf1", Role: graphview.RoleRouter, Parent: "leaves:1"},
			{ID: "host:eth7", Name: "host:eth7", Role: graphview.RoleCloud},
			{ID: "note", Role: graphview.RoleFreeText},
		},
		Edges: []graphview.EdgeElement{
			{Source: "spine1", SourceIface: "e1-1", Target: "leaf1", TargetIface: "e1-1", Class: graphview.EdgeUp},
			{Source: "leaf1", SourceIface: "e1-2", Target: "host:eth7", Class: graphview.EdgeDown},
		},
	}

	dot := ToDOT(els)

	if !strings.Contains(dot, "graph topology {") {
		t.Error("not an undirected graph")
	}
	if !strings.Contains(dot, `label="leaves";`) {
		t.Errorf("group cluster missing:\n%s", dot)
	}
	if !strings.Contains(dot, `"spine1" -- "leaf1"`) {
		t.Errorf("veth edge missing:\n%s", dot)
	}
	if !strings.Contains(dot, "color=red") {
		t.Errorf("down edge not styled:\n%s", dot)
	}
	if strings.Contains(dot, `"note"`) {
		t.Errorf("free text leaked into DOT:\n%s", dot)
	}

	// Nodes inside a cluster must not repeat at the top level.
	if strings.Count(dot, `"leaf1" [`) != 1 {
		t.Errorf("leaf1 declared more than once:\n%s", dot)
	}
}
