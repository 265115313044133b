package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/topolab/pkg/document"
	"github.com/matzehuels/topolab/pkg/topology"
)

// validateCommand creates the validate command checking a topology file
// for structural problems.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <topology-file>",
		Short: "Validate a topology file",
		Long: `Validate parses a topology file and reports every problem it finds:
unparseable structure, unknown link types and links with missing
required fields. All issues are reported in one pass; the exit code is
non-zero when any issue exists.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(args[0])
		},
	}
}

func (c *CLI) runValidate(path string) error {
	doc, err := document.Load(document.OSFS{}, path)
	if err != nil {
		return err
	}
	topo, err := topology.ParseDocument(doc)
	if err != nil {
		return err
	}

	total := 0
	for _, link := range topo.Links {
		issues := topology.ValidateLink(link)
		for _, issue := range issues {
			c.Logger.Error("invalid link", "index", link.Index, "kind", link.Kind, "issue", issue)
		}
		total += len(issues)
	}

	if total > 0 {
		return fmt.Errorf("%s: %d issue(s) in %d link(s)", path, total, len(topo.Links))
	}
	c.Logger.Info("topology valid", "path", path, "nodes", len(topo.Nodes), "links", len(topo.Links))
	return nil
}
