package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/kgview/pkg/config"
	"github.com/vanderheijden86/kgview/pkg/export"
	"github.com/vanderheijden86/kgview/pkg/hooks"
	"github.com/vanderheijden86/kgview/pkg/model"
)

type exportFlags struct {
	format    string
	query     string
	root      string
	depth     int
	minDegree int
	output    string
	noHooks   bool
}

func exportCmd(g *globalFlags) *cobra.Command {
	f := &exportFlags{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the graph as JSON adjacency, Graphviz DOT or Mermaid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			return g.profile(func() error {
				return runExport(cmd.Context(), cfg, f, cmd.OutOrStdout(), cmd.ErrOrStderr())
			})
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.format, "format", "f", "json", "Output format: json, dot or mermaid")
	fl.StringVarP(&f.query, "query", "q", "", "Export the graph scoped to the answer of this question")
	fl.StringVar(&f.root, "root", "", "Only the neighbourhood of this concept")
	fl.IntVar(&f.depth, "depth", 0, "Max hops from --root (0 = unlimited)")
	fl.IntVar(&f.minDegree, "min-degree", 0, "Drop concepts with fewer relations")
	fl.StringVarP(&f.output, "output", "o", "", "Write to a file instead of stdout")
	fl.BoolVar(&f.noHooks, "no-hooks", false, "Skip hooks from .kgv/hooks.yaml")
	return cmd
}

func runExport(ctx context.Context, cfg config.Config, f *exportFlags, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	g, title, err := loadGraph(ctx, cfg, f.query, "")
	if err != nil {
		return err
	}

	format := export.GraphExportFormat(strings.ToLower(f.format))
	hctx := hooks.ExportContext{
		ExportPath:   f.output,
		ExportFormat: string(format),
		NodeCount:    len(g.Nodes),
		LinkCount:    len(g.Links),
		Title:        title,
	}
	return withHooks(ctx, f.noHooks, hctx, errOut, func() (hooks.ExportContext, error) {
		res, err := writeExport(g, format, f, out)
		if err != nil {
			return hctx, err
		}
		hctx.NodeCount, hctx.LinkCount = res.Nodes, res.Edges
		return hctx, nil
	})
}

func writeExport(g model.Graph, format export.GraphExportFormat, f *exportFlags, out io.Writer) (*export.GraphExportResult, error) {
	res, err := export.ExportGraph(g, export.GraphExportConfig{
		Format:    format,
		Root:      f.root,
		Depth:     f.depth,
		MinDegree: f.minDegree,
	})
	if err != nil {
		return nil, err
	}

	var data []byte
	if res.Format == string(export.GraphFormatJSON) {
		if data, err = res.JSON(); err != nil {
			return nil, fmt.Errorf("encode export: %w", err)
		}
		data = append(data, '\n')
	} else {
		data = []byte(res.Graph)
	}

	if f.output == "" {
		_, err = out.Write(data)
		return res, err
	}
	if err := os.WriteFile(f.output, data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", f.output, err)
	}
	fmt.Fprintf(out, "Wrote %s (%d nodes, %d links, %s)\n", f.output, res.Nodes, res.Edges, res.Format)
	return res, nil
}
