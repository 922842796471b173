// Package export renders knowledge graphs to images and text formats.
//
// This file implements the interactive snapshot wizard used by `kgv snapshot`
// when output options are missing and stdin is a terminal.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/goccy/go-json"
	"golang.org/x/term"
)

// WizardConfig holds the answers collected by the snapshot wizard. The last
// answers are saved so the next run can offer them again.
type WizardConfig struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Title  string `json:"title,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Wizard collects snapshot options interactively.
type Wizard struct {
	config    *WizardConfig
	configDir string
}

// NewWizard creates a snapshot wizard seeded with defaults. configDir is where
// the previous answers are kept; empty disables persistence.
func NewWizard(configDir string, defaults GraphSnapshotOptions) *Wizard {
	c := &WizardConfig{
		Path:   defaults.Path,
		Format: defaults.Format,
		Title:  defaults.Title,
		Width:  defaults.Width,
		Height: defaults.Height,
	}
	if c.Path == "" {
		c.Path = "graph.png"
	}
	if c.Width <= 0 {
		c.Width = DefaultSnapshotWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultSnapshotHeight
	}
	return &Wizard{config: c, configDir: configDir}
}

// IsTerminal checks if stdin is connected to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !IsTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// Run asks for the missing options and returns them applied to base.
func (w *Wizard) Run(base GraphSnapshotOptions) (GraphSnapshotOptions, error) {
	if saved, err := LoadWizardConfig(w.configDir); err == nil && saved != nil {
		if base.Path == "" && saved.Path != "" {
			w.config.Path = saved.Path
		}
		if base.Title == "" {
			w.config.Title = saved.Title
		}
		if base.Width <= 0 && saved.Width > 0 {
			w.config.Width = saved.Width
		}
		if base.Height <= 0 && saved.Height > 0 {
			w.config.Height = saved.Height
		}
	}

	width := strconv.Itoa(w.config.Width)
	height := strconv.Itoa(w.config.Height)
	format := w.config.Format
	if format == "" {
		format = formatFromPath(w.config.Path)
	}

	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Output file").
				Value(&w.config.Path).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("a file name is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Format").
				Options(huh.NewOption("PNG image", "png"), huh.NewOption("SVG document", "svg")).
				Value(&format),
			huh.NewInput().
				Title("Title").
				Description("Shown in the summary block; leave blank for the default").
				Value(&w.config.Title),
		),
		huh.NewGroup(
			huh.NewInput().Title("Width (px)").Value(&width).Validate(validatePixels),
			huh.NewInput().Title("Height (px)").Value(&height).Validate(validatePixels),
		),
	)
	if err := form.Run(); err != nil {
		return base, err
	}

	w.config.Format = format
	w.config.Width, _ = strconv.Atoi(strings.TrimSpace(width))
	w.config.Height, _ = strconv.Atoi(strings.TrimSpace(height))
	w.config.Path = withExtension(strings.TrimSpace(w.config.Path), format)

	if err := SaveWizardConfig(w.configDir, w.config); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save snapshot settings: %v\n", err)
	}
	return w.Apply(base), nil
}

// Apply copies the collected answers onto opts.
func (w *Wizard) Apply(opts GraphSnapshotOptions) GraphSnapshotOptions {
	opts.Path = w.config.Path
	opts.Format = w.config.Format
	opts.Title = w.config.Title
	opts.Width = w.config.Width
	opts.Height = w.config.Height
	return opts
}

// GetConfig returns the current answers.
func (w *Wizard) GetConfig() *WizardConfig {
	return w.config
}

func validatePixels(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.New("enter a whole number of pixels")
	}
	if n < 64 || n > 8192 {
		return errors.New("must be between 64 and 8192")
	}
	return nil
}

func formatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		return "svg"
	}
	return "png"
}

// withExtension makes the file extension agree with the chosen format.
func withExtension(path, format string) string {
	ext := filepath.Ext(path)
	want := "." + format
	if strings.EqualFold(ext, want) {
		return path
	}
	if strings.EqualFold(ext, ".png") || strings.EqualFold(ext, ".svg") {
		path = strings.TrimSuffix(path, ext)
	}
	return path + want
}

// WizardConfigPath returns the path to the wizard answers file in dir.
func WizardConfigPath(dir string) string {
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "snapshot-wizard.json")
}

// LoadWizardConfig loads previously saved wizard answers. A missing file is
// not an error.
func LoadWizardConfig(dir string) (*WizardConfig, error) {
	path := WizardConfigPath(dir)
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No saved config
		}
		return nil, err
	}

	var config WizardConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// SaveWizardConfig saves wizard answers for future runs.
func SaveWizardConfig(dir string, config *WizardConfig) error {
	path := WizardConfigPath(dir)
	if path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
