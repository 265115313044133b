package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/matzehuels/topolab/pkg/document"
	"github.com/matzehuels/topolab/pkg/topology"
)

// inspectCommand creates the inspect command printing a plain-text
// summary of a topology file.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <topology-file>",
		Short: "Print a summary of a topology file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd, args[0])
		},
	}
}

func (c *CLI) runInspect(cmd *cobra.Command, path string) error {
	doc, err := document.Load(document.OSFS{}, path)
	if err != nil {
		return err
	}
	topo, err := topology.ParseDocument(doc)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "name:   %s\n", topo.Name)
	fmt.Fprintf(out, "prefix: %s\n", topo.FullPrefix())
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NODE\tKIND\tIMAGE\tGROUP")
	for _, name := range topo.NodeNames() {
		n := topo.Nodes[name]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.Name, n.Kind, n.Image, n.Group)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(out)

	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LINK\tKIND\tENDPOINTS")
	for _, l := range topo.Links {
		fmt.Fprintf(w, "%d\t%s\t%s\n", l.Index, l.Kind, endpointSummary(l))
	}
	return w.Flush()
}

func endpointSummary(l *topology.Link) string {
	switch {
	case len(l.Endpoints) >= 2:
		return l.Endpoints[0].String() + " <-> " + l.Endpoints[1].String()
	case len(l.Endpoints) == 1:
		s := l.Endpoints[0].String()
		switch l.Kind {
		case topology.LinkHost, topology.LinkMgmtNet, topology.LinkMacvlan:
			return s + " -> " + l.HostInterface
		case topology.LinkVxlan, topology.LinkVxlanStitch:
			return s + " -> " + l.Remote
		default:
			return s
		}
	default:
		return "(none)"
	}
}
