package multichassis

import (
	"testing"

	"github.com/matzehuels/topolab/pkg/runtime"
)

func container(name string, ifaces ...runtime.InterfaceState) runtime.ContainerState {
	return runtime.ContainerState{Name: name, State: "running", Interfaces: ifaces}
}

func iface(name string) runtime.InterfaceState {
	return runtime.InterfaceState{Name: name, State: runtime.StateUp}
}

func TestParseContainerName(t *testing.T) {
	tests := []struct {
		name     string
		wantBase string
		wantSlot string
		ok       bool
	}{
		{"clab-lab-sros1-a", "clab-lab-sros1", "a", true},
		{"sros1-b", "sros1", "b", true},
		{"plainname", "", "", false},
		{"-a", "", "", false},
		{"trailing-", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp, ok := ParseContainerName(tt.name)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if comp.BaseName != tt.wantBase || comp.Slot != tt.wantSlot {
				t.Errorf("got {%s %s}, want {%s %s}", comp.BaseName, comp.Slot, tt.wantBase, tt.wantSlot)
			}
		})
	}
}

func TestResolveDirectMatch(t *testing.T) {
	r := &Resolver{
		FullPrefix: "clab-lab",
		States: runtime.StateMap{
			"clab-lab-sros1-a": container("clab-lab-sros1-a", iface("e1-1")),
			"clab-lab-sros1-b": container("clab-lab-sros1-b", iface("e2-1")),
		},
	}

	m, ok := r.ResolveInterface("sros1", []string{"A", "B"}, "e2-1")
	if !ok {
		t.Fatal("no match")
	}
	if m.ContainerName != "clab-lab-sros1-b" || m.InterfaceName != "e2-1" {
		t.Errorf("match = %+v", m)
	}
}

func TestResolveUnprefixedCandidate(t *testing.T) {
	r := &Resolver{
		FullPrefix: "clab-lab",
		States: runtime.StateMap{
			"sros1-a": container("sros1-a", iface("eth3")),
		},
	}

	m, ok := r.ResolveInterface("sros1", []string{"a"}, "eth3")
	if !ok || m.ContainerName != "sros1-a" {
		t.Errorf("match = %+v, ok = %v", m, ok)
	}
}

func TestResolveInterfaceVariantMapping(t *testing.T) {
	// "1/2/3" maps to "e1-2-3".
	r := &Resolver{
		FullPrefix: "clab-lab",
		States: runtime.StateMap{
			"clab-lab-sros1-a": container("clab-lab-sros1-a", iface("e1-2-3")),
		},
	}

	m, ok := r.ResolveInterface("sros1", []string{"a"}, "1/2/3")
	if !ok {
		t.Fatal("no match for mapped interface form")
	}
	if m.InterfaceName != "e1-2-3" {
		t.Errorf("interface = %q, want e1-2-3", m.InterfaceName)
	}
}

func TestResolveFallbackScan(t *testing.T) {
	// Slot "c" is not in the declared component list but its container
	// exists; the fallback scan finds it.
	r := &Resolver{
		FullPrefix: "clab-lab",
		States: runtime.StateMap{
			"clab-lab-sros1-c": container("clab-lab-sros1-c", iface("e3-1")),
		},
	}

	m, ok := r.ResolveInterface("sros1", []string{"a", "b"}, "e3-1")
	if !ok {
		t.Fatal("fallback scan missed undeclared component")
	}
	if m.Slot != "c" {
		t.Errorf("slot = %q, want c", m.Slot)
	}
}

func TestSlotPriority(t *testing.T) {
	// Given containers for slots {b, a, c} all owning the interface,
	// the slot-a container always wins.
	shared := iface("eth0")
	r := &Resolver{
		FullPrefix: "clab-lab",
		States: runtime.StateMap{
			"clab-lab-sros1-b": container("clab-lab-sros1-b", shared),
			"clab-lab-sros1-a": container("clab-lab-sros1-a", shared),
			"clab-lab-sros1-c": container("clab-lab-sros1-c", shared),
		},
	}

	for i := 0; i < 20; i++ {
		m, ok := r.ResolveInterface("sros1", nil, "eth0")
		if !ok {
			t.Fatal("no match")
		}
		if m.Slot != "a" {
			t.Fatalf("slot = %q, want a (iteration %d)", m.Slot, i)
		}
	}
}

func TestSlotPriorityCaseInsensitive(t *testing.T) {
	if !slotLess("A", "b") {
		t.Error("A not before b")
	}
	if !slotLess("B", "x") {
		t.Error("B not before x")
	}
	if !slotLess("c", "D") {
		t.Error("other slots not lexicographic")
	}
}

func TestResolveMiss(t *testing.T) {
	r := &Resolver{FullPrefix: "clab-lab", States: runtime.StateMap{}}
	if _, ok := r.ResolveInterface("sros1", []string{"a"}, "eth0"); ok {
		t.Error("match against empty state map")
	}
}
