package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vanderheijden86/kgview/pkg/analysis"
	"github.com/vanderheijden86/kgview/pkg/config"
	"github.com/vanderheijden86/kgview/pkg/engine"
	"github.com/vanderheijden86/kgview/pkg/model"
	"github.com/vanderheijden86/kgview/pkg/ui"
)

func askCmd(g *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and print the answer with its evidence",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return errors.New("question is empty")
			}
			return g.profile(func() error {
				return runAsk(cmd.Context(), cfg, query, cmd.OutOrStdout(), asJSON)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw engine response as JSON")
	return cmd
}

func runAsk(ctx context.Context, cfg config.Config, query string, out io.Writer, asJSON bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	client := engine.NewClient(cfg.EngineOptions())
	resp, err := client.Chat(ctx, query)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	return writeAnswer(out, resp, renderMarkdown(out))
}

// renderMarkdown returns a glamour renderer when out is a terminal, nil for
// pipes and files.
func renderMarkdown(out io.Writer) func(string) string {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return nil
	}
	return func(s string) string {
		rendered, err := r.Render(s)
		if err != nil {
			return s
		}
		return strings.TrimRight(rendered, "\n")
	}
}

// writeAnswer prints the answer, its metrics and both evidence lists in the
// order the dashboard shows them.
func writeAnswer(w io.Writer, resp model.ChatResponse, md func(string) string) error {
	answer := resp.Answer
	if md != nil {
		answer = md(answer)
	}

	var b strings.Builder
	b.WriteString(answer)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Confidence: %.0f%%  Sources: %d  Graph: %d nodes, %d links\n",
		resp.Metrics.Confidence*100, resp.Metrics.SourceCount,
		len(resp.GraphData.Nodes), len(resp.GraphData.Links))
	if line := centralLine(analysis.NewAnalyzer(resp.GraphData).Analyze()); line != "" {
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + ui.EvidenceLocalTitle + "\n")
	if len(resp.Context.Local) == 0 {
		b.WriteString("  " + ui.NoLocalEvidence + "\n")
	}
	for _, item := range resp.Context.Local {
		fmt.Fprintf(&b, "  [%s] %q\n", ui.ScoreLabel(item.ScoreValue()), item.Text)
	}

	b.WriteString("\n" + ui.EvidenceGlobalTitle + "\n")
	if len(resp.Context.Global) == 0 {
		b.WriteString("  " + ui.NoGlobalEvidence + "\n")
	}
	for _, item := range resp.Context.Global {
		fmt.Fprintf(&b, "  [%s] %q\n", ui.CommunitySummary, item.Text)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// centralLine names the most central concepts of an answer's graph.
func centralLine(stats analysis.Stats) string {
	hubs := stats.Hubs(3)
	if len(hubs) == 0 {
		return ""
	}
	line := "Central concepts: " + strings.Join(hubs, ", ")
	if bridges := stats.Bridges(1); len(bridges) > 0 && bridges[0] != hubs[0] {
		line += "  Bridge: " + bridges[0]
	}
	return line
}
