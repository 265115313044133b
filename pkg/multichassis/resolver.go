// Package multichassis resolves logical multi-chassis nodes onto the
// physical containers that implement them.
//
// A distributed node is declared once in the topology but realized by
// several containers, one per component slot (control plane "a", line cards
// "b", "c", ...). Interface lookups therefore have to find which container
// actually owns a given interface, tolerating containers that are missing
// from the declared component list and interface names written in either
// their raw or slot-encoded form.
package multichassis

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/topolab/pkg/runtime"
)

// Component is one physical container implementing one slot of a logical
// node.
type Component struct {
	BaseName      string
	Slot          string
	ContainerName string
}

// Match is the result of a successful interface resolution.
type Match struct {
	ContainerName string
	InterfaceName string
	Slot          string
}

// ParseContainerName extracts {base, slot} from a container name following
// the "{prefix-}base-slot" convention. The last dash-separated segment is
// the slot; names without a dash carry no component info.
func ParseContainerName(name string) (Component, bool) {
	i := strings.LastIndex(name, "-")
	if i <= 0 || i == len(name)-1 {
		return Component{}, false
	}
	return Component{
		BaseName:      name[:i],
		Slot:          name[i+1:],
		ContainerName: name,
	}, true
}

// slotRank orders slots for tie-breaking: slot "a" before "b" before any
// other slot, case-insensitively; "other" slots order lexicographically
// among themselves.
func slotRank(slot string) int {
	switch strings.ToLower(slot) {
	case "a":
		return 0
	case "b":
		return 1
	default:
		return 2
	}
}

// slotLess reports whether slot a wins the tie-break against slot b.
func slotLess(a, b string) bool {
	ra, rb := slotRank(a), slotRank(b)
	if ra != rb {
		return ra < rb
	}
	return strings.ToLower(a) < strings.ToLower(b)
}

// Resolver resolves node/interface pairs against live container state. It is
// read-only and side-effect-free; it never mutates container or topology
// state.
type Resolver struct {
	// FullPrefix is the lab's container-name prefix ("clab-<labname>").
	FullPrefix string

	// States is the live container state map.
	States runtime.StateMap
}

// ResolveInterface resolves a logical node name plus interface name to the
// concrete container and interface that own it. A miss returns
// (Match{}, false), never an error: callers treat it as "no such interface".
func (r *Resolver) ResolveInterface(baseName string, slots []string, iface string) (Match, bool) {
	variants := interfaceVariants(iface)

	// Pass 1: direct lookup through the declared component slots.
	for _, slot := range sortedSlots(slots) {
		for _, candidate := range r.candidateNames(baseName, slot) {
			if m, ok := r.matchContainer(candidate, slot, variants); ok {
				return m, true
			}
		}
	}

	// Pass 2: scan every container following the base/slot convention, to
	// tolerate components absent from the declared list.
	var best Match
	found := false
	for name := range r.States {
		comp, ok := ParseContainerName(name)
		if !ok {
			continue
		}
		if comp.BaseName != baseName && comp.BaseName != r.FullPrefix+"-"+baseName {
			continue
		}
		m, ok := r.matchContainer(name, comp.Slot, variants)
		if !ok {
			continue
		}
		if !found || slotLess(m.Slot, best.Slot) {
			best = m
			found = true
		}
	}
	return best, found
}

// candidateNames builds the container-name candidates for a slot, prefixed
// and bare.
func (r *Resolver) candidateNames(baseName, slot string) []string {
	return []string{
		fmt.Sprintf("%s-%s-%s", r.FullPrefix, baseName, slot),
		fmt.Sprintf("%s-%s", baseName, slot),
	}
}

// matchContainer checks whether the named container exists and owns one of
// the interface name variants.
func (r *Resolver) matchContainer(container, slot string, variants []string) (Match, bool) {
	state, ok := r.States[container]
	if !ok {
		return Match{}, false
	}
	for _, v := range variants {
		if ifc, ok := state.Interface(v); ok {
			return Match{ContainerName: container, InterfaceName: ifc.Name, Slot: slot}, true
		}
	}
	return Match{}, false
}

// interfaceVariants returns the name-encoding variants of a requested
// interface: the raw form, and the mapped form where the numeric slot/path
// separators of "a/b/c" become "a-b-c" prefixed with "e".
func interfaceVariants(iface string) []string {
	variants := []string{iface}
	if strings.Contains(iface, "/") {
		mapped := "e" + strings.ReplaceAll(iface, "/", "-")
		variants = append(variants, mapped)
	}
	return variants
}

// sortedSlots returns the declared slots in priority order without mutating
// the input.
func sortedSlots(slots []string) []string {
	out := slices.Clone(slots)
	slices.SortFunc(out, func(a, b string) int {
		if slotLess(a, b) {
			return -1
		}
		if slotLess(b, a) {
			return 1
		}
		return 0
	})
	return out
}
