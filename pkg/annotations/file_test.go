package annotations

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/topolab/pkg/topology"
)

func TestSidecarPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"lab.clab.yml", "lab.clab.annotations.json"},
		{"lab.clab.yaml", "lab.clab.annotations.json"},
		{"/labs/core/core.yml", "/labs/core/core.annotations.json"},
		{"topo", "topo.annotations.json"},
	}
	for _, tc := range tests {
		if got := SidecarPath(tc.in); got != tc.want {
			t.Errorf("SidecarPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lab.annotations.json")
	store := NewFileStore(path)
	ctx := context.Background()

	// Missing file is an empty set, not an error.
	set, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if len(set.Nodes) != 0 {
		t.Fatalf("missing file produced %d annotations", len(set.Nodes))
	}

	set.Nodes = append(set.Nodes, NodeAnnotation{
		ID:       "spine1",
		Position: &topology.Position{X: 100, Y: 50},
		Icon:     "router",
	})
	set.Texts = append(set.Texts, FreeTextAnnotation{
		ID:   "note-1",
		Text: "core pod",
		Bold: true,
	})
	if err := store.Save(ctx, set); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Nodes) != 1 || loaded.Nodes[0].ID != "spine1" {
		t.Fatalf("node annotations = %+v", loaded.Nodes)
	}
	if loaded.Nodes[0].Position == nil || loaded.Nodes[0].Position.X != 100 {
		t.Errorf("position = %+v", loaded.Nodes[0].Position)
	}
	if len(loaded.Texts) != 1 || !loaded.Texts[0].Bold {
		t.Errorf("text annotations = %+v", loaded.Texts)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after save")
	}
}

func TestFileStoreCorruptSidecar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lab.annotations.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Error("corrupt sidecar loaded without error")
	}
}

func TestPositionsAndPrune(t *testing.T) {
	set := &Set{
		Nodes: []NodeAnnotation{
			{ID: "spine1", Position: &topology.Position{X: 1, Y: 2}},
			{ID: "gone", Position: &topology.Position{X: 3, Y: 4}},
			{ID: "leaf1"}, // no stored position
		},
	}

	pos := set.Positions()
	if len(pos) != 2 {
		t.Fatalf("positions = %v", pos)
	}
	if pos["spine1"].X != 1 {
		t.Errorf("spine1 position = %+v", pos["spine1"])
	}

	topo := &topology.Topology{Nodes: map[string]*topology.Node{
		"spine1": {Name: "spine1"},
		"leaf1":  {Name: "leaf1"},
	}}
	set.Prune(topo)
	if len(set.Nodes) != 2 {
		t.Fatalf("prune kept %d annotations", len(set.Nodes))
	}
	for _, n := range set.Nodes {
		if n.ID == "gone" {
			t.Error("stale annotation survived prune")
		}
	}
}
