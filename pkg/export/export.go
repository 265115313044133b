// Package export projects graph elements into Graphviz output for
// documentation and quick visual checks outside the interactive editor.
package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/topolab/pkg/graphview"
)

// ToDOT converts graph elements to Graphviz DOT. Groups become clusters,
// pseudo-endpoints render as clouds, and the edge class drives the stroke
// so a rendered lab shows what is down at a glance.
func ToDOT(els graphview.Elements) string {
	var buf bytes.Buffer
	buf.WriteString("graph topology {\n")
	buf.WriteString("  layout=dot;\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n")
	buf.WriteString("\n")

	byParent := map[string][]*graphview.NodeElement{}
	var groups []string
	for i := range els.Nodes {
		n := &els.Nodes[i]
		if n.Role == graphview.RoleGroup {
			groups = append(groups, n.ID)
			continue
		}
		if graphview.SyntheticRole(n.Role) {
			continue
		}
		byParent[n.Parent] = append(byParent[n.Parent], n)
	}

	cluster := 0
	for _, group := range groups {
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", cluster)
		fmt.Fprintf(&buf, "    label=%q;\n", groupLabel(group))
		for _, n := range byParent[group] {
			fmt.Fprintf(&buf, "    %q [%s];\n", n.ID, strings.Join(nodeAttrs(n), ", "))
		}
		buf.WriteString("  }\n")
		cluster++
	}
	for _, n := range byParent[""] {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n), ", "))
	}

	buf.WriteString("\n")
	for i := range els.Edges {
		e := &els.Edges[i]
		fmt.Fprintf(&buf, "  %q -- %q [%s];\n", e.Source, e.Target, strings.Join(edgeAttrs(e), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// groupLabel strips the level suffix from a "<group>:<level>" id.
func groupLabel(id string) string {
	group, _, _ := strings.Cut(id, ":")
	return group
}

func nodeAttrs(n *graphview.NodeElement) []string {
	attrs := []string{fmt.Sprintf("label=%q", n.DisplayName())}
	switch n.Role {
	case graphview.RoleBridge:
		attrs = append(attrs, "shape=box", "fillcolor=lightyellow")
	case graphview.RoleCloud:
		attrs = append(attrs, "shape=ellipse", "style=\"dashed,filled\"", "fillcolor=lightgrey")
	case graphview.RoleHost:
		attrs = append(attrs, "fillcolor=lightblue")
	}
	return attrs
}

func edgeAttrs(e *graphview.EdgeElement) []string {
	label := e.SourceIface
	if e.TargetIface != "" {
		label += " / " + e.TargetIface
	}
	attrs := []string{fmt.Sprintf("label=%q", label), "fontsize=9"}
	if e.Class == graphview.EdgeDown {
		attrs = append(attrs, "color=red", "style=dashed")
	}
	return attrs
}

// RenderSVG renders elements to SVG via Graphviz.
func RenderSVG(ctx context.Context, els graphview.Elements) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(ToDOT(els)))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
