package topology

import (
	"slices"
	"testing"
)

func TestIsSpecialEndpointID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		// One representative and one near-miss per family.
		{"host", true},
		{"myhost", false},
		{"mgmt-net", true},
		{"mgmt-network", false},
		{"macvlan:enp0s3", true},
		{"macvlan", false},
		{"vxlan:tunnel1", true},
		{"vxlan", false},
		{"vxlan-stitch:tunnel1", true},
		{"bridge:br0", true},
		{"bridges", false},
		{"ovs-bridge:ovs0", true},
		{"ovs", false},
		{"dummy", true},
		{"dummy3", true},
		{"dum", false},
		{"node1", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := IsSpecialEndpointID(tt.id); got != tt.want {
				t.Errorf("IsSpecialEndpointID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestIsSpecialNode(t *testing.T) {
	if !IsSpecialNode(&Node{Name: "br0", Kind: "bridge"}, "br0") {
		t.Error("bridge-kind node not special")
	}
	if !IsSpecialNode(&Node{Name: "ovs0", Kind: "ovs-bridge"}, "ovs0") {
		t.Error("ovs-bridge-kind node not special")
	}
	if IsSpecialNode(&Node{Name: "r1", Kind: "linux"}, "r1") {
		t.Error("plain node reported special")
	}
	if !IsSpecialNode(nil, "host") {
		t.Error("nil node with special id not special")
	}
}

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  Endpoint
	}{
		{"String", "node1:eth0", Endpoint{Node: "node1", Interface: "eth0"}},
		{"NoColon", "node1", Endpoint{Node: "node1"}},
		// More than one colon: opaque node id, empty interface.
		{"MultiColon", "vxlan:2001:db8::1", Endpoint{Node: "vxlan:2001:db8::1"}},
		{"Mapping", map[string]any{"node": "node2", "interface": "e1-1"}, Endpoint{Node: "node2", Interface: "e1-1"}},
		{"Unknown", 42, Endpoint{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitEndpoint(tt.value); got != tt.want {
				t.Errorf("SplitEndpoint(%v) = %+v, want %+v", tt.value, got, tt.want)
			}
		})
	}
}

func TestSplitEndpointRoundTrip(t *testing.T) {
	// Splitting each side of a valid two-endpoint link and re-joining
	// reconstructs the original pair.
	for _, s := range []string{"node1:eth0", "spine-1:e1-1", "leaf2:eth12"} {
		ep := SplitEndpoint(s)
		if got := ep.String(); got != s {
			t.Errorf("round trip of %q = %q", s, got)
		}
	}
}

func TestClassifyLink(t *testing.T) {
	tests := []struct {
		name     string
		raw      RawLink
		wantKind LinkKind
		wantEPs  int
	}{
		{
			name:     "BriefVeth",
			raw:      RawLink{Endpoints: []any{"a:eth0", "b:eth0"}},
			wantKind: LinkVeth,
			wantEPs:  2,
		},
		{
			name:     "ExplicitVeth",
			raw:      RawLink{Type: "veth", Endpoints: []any{"a:eth0", "b:eth0"}},
			wantKind: LinkVeth,
			wantEPs:  2,
		},
		{
			name:     "Vxlan",
			raw:      RawLink{Type: "vxlan", Endpoint: "a:eth1", Remote: "10.0.0.1", VNI: 100, UDPPort: 4789},
			wantKind: LinkVxlan,
			wantEPs:  1,
		},
		{
			name:     "HostViaEndpointsList",
			raw:      RawLink{Type: "host", Endpoints: []any{"a:eth2"}, HostInterface: "veth-a"},
			wantKind: LinkHost,
			wantEPs:  1,
		},
		{
			name:     "Dummy",
			raw:      RawLink{Type: "dummy", Endpoint: map[string]any{"node": "a", "interface": "eth9"}},
			wantKind: LinkDummy,
			wantEPs:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := ClassifyLink(tt.raw, 0)
			if l.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", l.Kind, tt.wantKind)
			}
			if len(l.Endpoints) != tt.wantEPs {
				t.Errorf("endpoints = %d, want %d", len(l.Endpoints), tt.wantEPs)
			}
		})
	}
}

func TestLinkIdentityOrderInsensitive(t *testing.T) {
	a := &Link{Kind: LinkVeth, Endpoints: []Endpoint{{"node1", "eth0"}, {"node2", "eth0"}}}
	b := &Link{Kind: LinkVeth, Endpoints: []Endpoint{{"node2", "eth0"}, {"node1", "eth0"}}}
	if a.Identity() != b.Identity() {
		t.Errorf("veth identity order-sensitive: %q vs %q", a.Identity(), b.Identity())
	}

	// Two different special kinds on the same endpoint stay distinct.
	h := &Link{Kind: LinkHost, Endpoints: []Endpoint{{"node1", "eth1"}}}
	m := &Link{Kind: LinkMacvlan, Endpoints: []Endpoint{{"node1", "eth1"}}}
	if h.Identity() == m.Identity() {
		t.Error("host and macvlan identities collide")
	}
}

func TestValidateLink(t *testing.T) {
	tests := []struct {
		name string
		link *Link
		want []IssueCode
	}{
		{
			name: "ValidVeth",
			link: &Link{Kind: LinkVeth, Endpoints: []Endpoint{{"a", "eth0"}, {"b", "eth0"}}},
			want: nil,
		},
		{
			name: "UntypedTwoEndpoint",
			link: &Link{Endpoints: []Endpoint{{"a", "eth0"}, {"b", "eth0"}}},
			want: nil,
		},
		{
			name: "VethOneEndpoint",
			link: &Link{Kind: LinkVeth, Endpoints: []Endpoint{{"a", "eth0"}}},
			want: []IssueCode{IssueMissingEndpoint},
		},
		{
			name: "VethEmptyNode",
			link: &Link{Kind: LinkVeth, Endpoints: []Endpoint{{"", "eth0"}, {"b", "eth0"}}},
			want: []IssueCode{IssueUnresolvedEndpoint},
		},
		{
			name: "HostMissingInterface",
			link: &Link{Kind: LinkHost, Endpoints: []Endpoint{{"a", "eth0"}}},
			want: []IssueCode{IssueMissingHostInterface},
		},
		{
			name: "MgmtNetValid",
			link: &Link{Kind: LinkMgmtNet, Endpoints: []Endpoint{{"a", "eth0"}}, HostInterface: "br-mgmt"},
			want: nil,
		},
		{
			name: "MacvlanValid",
			link: &Link{Kind: LinkMacvlan, Endpoints: []Endpoint{{"a", "eth0"}}},
			want: nil,
		},
		{
			name: "VxlanAllMissing",
			link: &Link{Kind: LinkVxlan, Endpoints: []Endpoint{{"a", "eth1"}}},
			want: []IssueCode{IssueMissingRemote, IssueMissingVNI, IssueMissingDstPort},
		},
		{
			name: "VxlanStitchValid",
			link: &Link{Kind: LinkVxlanStitch, Endpoints: []Endpoint{{"a", "eth1"}}, Remote: "10.0.0.9", VNI: 200, UDPPort: 4789},
			want: nil,
		},
		{
			name: "NoEndpointAtAll",
			link: &Link{Kind: LinkDummy},
			want: []IssueCode{IssueMissingEndpoint},
		},
		{
			name: "Nil",
			link: nil,
			want: []IssueCode{IssueMissingEndpoint},
		},
		{
			name: "UnknownKind",
			link: &Link{Kind: "wormhole", Endpoints: []Endpoint{{"a", "eth0"}}},
			want: []IssueCode{IssueUnknownKind},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateLink(tt.link)
			// Codes may come back in any order.
			slices.Sort(got)
			want := slices.Clone(tt.want)
			slices.Sort(want)
			if !slices.Equal(got, want) {
				t.Errorf("ValidateLink = %v, want %v", got, tt.want)
			}
		})
	}
}
