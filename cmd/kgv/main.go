// Command kgv is a terminal client for a Knowledge Engine: a chat panel next
// to a live force-directed view of the knowledge graph behind each answer.
package main

import (
	_ "github.com/vanderheijden86/kgview/pkg/ttyguard"

	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/kgview/pkg/config"
	"github.com/vanderheijden86/kgview/pkg/debug"
	"github.com/vanderheijden86/kgview/pkg/engine"
	"github.com/vanderheijden86/kgview/pkg/metrics"
	"github.com/vanderheijden86/kgview/pkg/ui"
	"github.com/vanderheijden86/kgview/pkg/version"
	"github.com/vanderheijden86/kgview/pkg/viewport"
	"github.com/vanderheijden86/kgview/pkg/watcher"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand and override config.yaml.
type globalFlags struct {
	configPath string
	engineURL  string
	source     string
	watch      bool
	timeout    time.Duration
	cpuProfile string
	report     bool
}

func rootCmd() *cobra.Command {
	return newRootCmd(&globalFlags{})
}

func newRootCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kgv",
		Short: "Chat with a knowledge graph",
		Long: `kgv asks a Knowledge Engine questions and shows, next to each answer,
the part of the knowledge graph the answer was drawn from.

Tab flips the dashboard between the graph and the evidence cards.
Without a subcommand kgv starts the interactive dashboard.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			return g.profile(func() error { return runTUI(cfg) })
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "Config file path (default "+config.ConfigPath()+")")
	pf.StringVar(&g.engineURL, "engine-url", "", "Knowledge Engine base URL (env "+config.EnvEngineURL+")")
	pf.StringVar(&g.source, "source", "", "Load the startup graph from a JSON/SQLite file or directory")
	pf.BoolVar(&g.watch, "watch", false, "Reload --source when it changes on disk")
	pf.DurationVar(&g.timeout, "timeout", 0, "Per-request timeout for the engine")
	pf.StringVar(&g.cpuProfile, "cpu-profile", "", "Write CPU profile to file")
	pf.BoolVar(&g.report, "metrics", false, "Print timing metrics on exit")

	cmd.AddCommand(askCmd(g), snapshotCmd(g), exportCmd(g))
	return cmd
}

// load reads the config file and applies the flags the user set explicitly.
func (g *globalFlags) load(cmd *cobra.Command) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.LoadFrom(g.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("engine-url") {
		cfg.Engine.BaseURL = g.engineURL
	}
	if flags.Changed("source") {
		cfg.Source.Path = g.source
	}
	if flags.Changed("watch") {
		cfg.Source.Watch = g.watch
	}
	if flags.Changed("timeout") {
		cfg.Engine.Timeout = g.timeout
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// profile runs fn under the optional CPU profiler and metrics report.
func (g *globalFlags) profile(fn func() error) error {
	if g.cpuProfile != "" {
		f, err := os.Create(g.cpuProfile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}
	err := fn()
	if g.report {
		_ = metrics.Report(os.Stderr)
	}
	return err
}

func runTUI(cfg config.Config) error {
	// The dashboard owns the terminal, so debug output goes to a file.
	if debug.Enabled() {
		if dir := config.StateDir(); dir != "" {
			if closeLog, err := debug.Init(filepath.Join(dir, "kgv.log")); err == nil {
				defer closeLog()
			}
		}
	}
	debug.Section("kgv " + version.Version)

	opts := ui.Options{
		Engine:      engine.NewClient(cfg.EngineOptions()),
		Timeout:     cfg.Engine.Timeout,
		Greeting:    cfg.UI.Greeting,
		SplitRatio:  cfg.UI.SplitRatio,
		Layout:      cfg.LayoutConfig(),
		Camera:      cfg.CameraConfig(),
		Cell:        cfg.CellBox(),
		SourcePath:  cfg.Source.Path,
		SnapshotDir: ".",
	}
	opts.Cell = viewport.TerminalCellBox(os.Stdout, opts.Cell)
	opts.Measure = ui.TerminalMeasure(os.Stdout, opts)

	if cfg.Source.Path != "" && cfg.Source.Watch {
		w, err := watcher.NewWatcher(cfg.Source.Path,
			watcher.WithOnError(func(err error) { debug.Warn("watcher: %v", err) }),
		)
		if err != nil {
			return fmt.Errorf("watch %s: %w", cfg.Source.Path, err)
		}
		if err := w.Start(); err != nil {
			return fmt.Errorf("watch %s: %w", cfg.Source.Path, err)
		}
		defer w.Stop()
		opts.Watcher = w
	}

	m := ui.NewModel(opts)
	defer m.Close()
	if err := runTUIProgram(m); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated runs: set KGV_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("KGV_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
