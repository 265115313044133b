package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/topolab/pkg/annotations"
	"github.com/matzehuels/topolab/pkg/document"
	"github.com/matzehuels/topolab/pkg/export"
	"github.com/matzehuels/topolab/pkg/graphview"
	"github.com/matzehuels/topolab/pkg/topology"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output string // output file path, derived from input when empty
	format string // "dot" or "svg"
}

// renderCommand creates the render command projecting a topology file
// into a Graphviz diagram.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <topology-file>",
		Short: "Render a topology as a diagram",
		Long: `Render projects a topology file into Graphviz output. Groups become
clusters and stored annotation positions are honored. The default
format is SVG; use --format dot for the raw graph description.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (defaults to input name with new extension)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatSVG, "output format: dot or svg")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, path string, opts renderOpts) error {
	if opts.format != formatDOT && opts.format != formatSVG {
		return fmt.Errorf("unknown format %q", opts.format)
	}

	doc, err := document.Load(document.OSFS{}, path)
	if err != nil {
		return err
	}
	topo, err := topology.ParseDocument(doc)
	if err != nil {
		return err
	}

	// Stored positions feed the layout when present; rendering works fine
	// without a sidecar.
	set, err := annotations.NewFileStore(annotations.SidecarPath(path)).Load(cmd.Context())
	if err != nil {
		return err
	}

	els := graphview.NewBuilder(c.Logger).Build(topo, nil, set.Positions())

	var data []byte
	switch opts.format {
	case formatDOT:
		data = []byte(export.ToDOT(els))
	case formatSVG:
		if data, err = export.RenderSVG(cmd.Context(), els); err != nil {
			return err
		}
	}

	out := opts.output
	if out == "" {
		out = outputName(path, opts.format)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	c.Logger.Info("rendered topology", "path", path, "output", out, "format", opts.format)
	return nil
}

// outputName swaps the topology file extension for the render format.
func outputName(path, format string) string {
	base := path
	if ext := filepath.Ext(base); ext == ".yml" || ext == ".yaml" {
		base = strings.TrimSuffix(base, ext)
	}
	return base + "." + format
}
