package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/kgview/internal/datasource"
	"github.com/vanderheijden86/kgview/pkg/config"
	"github.com/vanderheijden86/kgview/pkg/engine"
	"github.com/vanderheijden86/kgview/pkg/export"
	"github.com/vanderheijden86/kgview/pkg/hooks"
	"github.com/vanderheijden86/kgview/pkg/model"
)

// DefaultSnapshotPath is used when neither --output nor the wizard names a file.
const DefaultSnapshotPath = "graph.png"

type snapshotFlags struct {
	output    string
	format    string
	title     string
	query     string
	width     int
	height    int
	noSummary bool
	noWizard  bool
	noHooks   bool
}

func snapshotCmd(g *globalFlags) *cobra.Command {
	f := &snapshotFlags{}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Settle the graph layout and export it as PNG or SVG",
		Long: `snapshot loads the full graph (or the graph behind the answer to --query),
runs the force layout to rest, fits the camera and writes an image.

When stdin is a terminal and --output is not given, a short form asks for
the file, format, title and size; the answers are remembered for next time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			return g.profile(func() error {
				return runSnapshot(cmd.Context(), cfg, f, cmd.OutOrStdout(), cmd.ErrOrStderr())
			})
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", "", "Output file (default "+DefaultSnapshotPath+")")
	fl.StringVar(&f.format, "format", "", "Image format: png or svg (default from the file extension)")
	fl.StringVar(&f.title, "title", "", "Title shown in the summary block")
	fl.StringVarP(&f.query, "query", "q", "", "Export the graph scoped to the answer of this question")
	fl.IntVar(&f.width, "width", 0, "Image width in pixels")
	fl.IntVar(&f.height, "height", 0, "Image height in pixels")
	fl.BoolVar(&f.noSummary, "no-summary", false, "Omit the summary block")
	fl.BoolVar(&f.noWizard, "no-wizard", false, "Never prompt for missing options")
	fl.BoolVar(&f.noHooks, "no-hooks", false, "Skip hooks from .kgv/hooks.yaml")
	return cmd
}

func runSnapshot(ctx context.Context, cfg config.Config, f *snapshotFlags, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	g, title, err := loadGraph(ctx, cfg, f.query, f.title)
	if err != nil {
		return err
	}

	opts := export.GraphSnapshotOptions{
		Path:      f.output,
		Format:    f.format,
		Title:     title,
		Width:     f.width,
		Height:    f.height,
		Graph:     g,
		Layout:    cfg.LayoutConfig(),
		Camera:    cfg.CameraConfig(),
		NoSummary: f.noSummary,
	}

	switch {
	case opts.Path != "":
	case !f.noWizard && export.IsTerminal():
		opts, err = export.NewWizard(config.StateDir(), opts).Run(opts)
		if err != nil {
			return fmt.Errorf("snapshot wizard: %w", err)
		}
	default:
		opts.Path = DefaultSnapshotPath
	}

	hctx := hooks.ExportContext{
		ExportPath:   opts.Path,
		ExportFormat: snapshotFormat(opts),
		NodeCount:    len(g.Nodes),
		LinkCount:    len(g.Links),
		Title:        title,
	}
	return withHooks(ctx, f.noHooks, hctx, errOut, func() (hooks.ExportContext, error) {
		if err := export.SaveGraphSnapshot(opts); err != nil {
			return hctx, fmt.Errorf("export snapshot: %w", err)
		}
		fmt.Fprintf(out, "Saved %s (%d nodes, %d links)\n", opts.Path, len(g.Nodes), len(g.Links))
		return hctx, nil
	})
}

// snapshotFormat is the image format SaveGraphSnapshot will pick.
func snapshotFormat(opts export.GraphSnapshotOptions) string {
	if opts.Format != "" {
		return strings.ToLower(opts.Format)
	}
	if strings.EqualFold(filepath.Ext(opts.Path), ".svg") {
		return "svg"
	}
	return "png"
}

// loadGraph picks the graph to export: the local source, the scoped graph of
// a query, or the engine's full graph. A query doubles as the default title.
func loadGraph(ctx context.Context, cfg config.Config, query, title string) (model.Graph, string, error) {
	if query == "" && cfg.Source.Path != "" {
		g, err := datasource.Load(cfg.Source.Path)
		if err != nil {
			return model.Graph{}, "", err
		}
		return g, title, nil
	}

	client := engine.NewClient(cfg.EngineOptions())
	if query == "" {
		g, err := client.FetchGraph(ctx)
		return g, title, err
	}

	resp, err := client.Chat(ctx, query)
	if err != nil {
		return model.Graph{}, "", err
	}
	if resp.GraphData.Empty() {
		return model.Graph{}, "", errors.New("the answer came without a graph")
	}
	if title == "" {
		title = query
	}
	return resp.GraphData, title, nil
}
