// Package runtime defines the container runtime-state feed consumed by the
// engine. The feed is read-only: it annotates graph elements with live state
// but never alters parsed topology structure.
package runtime

import "context"

// Interface operational states as reported by the runtime.
const (
	StateUp   = "up"
	StateDown = "down"
)

// InterfaceStats carries per-interface byte and packet counters.
type InterfaceStats struct {
	RxBytes   uint64 `json:"rxBytes"`
	TxBytes   uint64 `json:"txBytes"`
	RxPackets uint64 `json:"rxPackets"`
	TxPackets uint64 `json:"txPackets"`
}

// InterfaceState is the live state of one container interface.
type InterfaceState struct {
	Name  string          `json:"name"`
	Alias string          `json:"alias,omitempty"`
	State string          `json:"state"`
	MAC   string          `json:"mac,omitempty"`
	Stats *InterfaceStats `json:"stats,omitempty"`
}

// ContainerState is the live state of one lab container.
type ContainerState struct {
	Name       string           `json:"name"`
	State      string           `json:"state"`
	MAC        string           `json:"mac,omitempty"`
	MgmtIPv4   string           `json:"mgmtIpv4,omitempty"`
	MgmtIPv6   string           `json:"mgmtIpv6,omitempty"`
	Interfaces []InterfaceState `json:"interfaces,omitempty"`
}

// StateMap maps container name to its live state.
type StateMap map[string]ContainerState

// Interface returns the state of the named interface, matching on name first
// and alias second.
func (c ContainerState) Interface(name string) (InterfaceState, bool) {
	for _, ifc := range c.Interfaces {
		if ifc.Name == name {
			return ifc, true
		}
	}
	for _, ifc := range c.Interfaces {
		if ifc.Alias == name && ifc.Alias != "" {
			return ifc, true
		}
	}
	return InterfaceState{}, false
}

// Source supplies a fresh state map per refresh.
type Source interface {
	States(ctx context.Context) (StateMap, error)
}

// StaticSource is a Source backed by a fixed map, used by the CLI and tests.
type StaticSource struct {
	Map StateMap
}

// States returns the fixed map.
func (s StaticSource) States(ctx context.Context) (StateMap, error) {
	return s.Map, nil
}

var _ Source = StaticSource{}
