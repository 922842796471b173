// Package config handles loading and saving kgv configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/kgv/config.yaml
//   - State:   ~/.local/state/kgv/ (debug log, snapshot wizard answers)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/kgview/pkg/camera"
	"github.com/vanderheijden86/kgview/pkg/engine"
	"github.com/vanderheijden86/kgview/pkg/layout"
	"github.com/vanderheijden86/kgview/pkg/viewport"
)

// EnvEngineURL overrides engine.base_url from the file.
const EnvEngineURL = "KGV_ENGINE_URL"

// DefaultEngineURL is where a locally started Knowledge Engine listens.
const DefaultEngineURL = "http://localhost:8000"

// EngineConfig holds Knowledge Engine connection settings.
type EngineConfig struct {
	BaseURL string        `yaml:"base_url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" validate:"min=1ms"`
	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig tunes the circuit breaker in front of the engine.
type BreakerConfig struct {
	ConsecutiveFailures uint32        `yaml:"consecutive_failures" validate:"min=1"`
	OpenTimeout         time.Duration `yaml:"open_timeout" validate:"min=1ms"`
	Interval            time.Duration `yaml:"interval" validate:"min=0s"`
}

// LayoutConfig holds the force simulation knobs.
type LayoutConfig struct {
	Charge        float64 `yaml:"charge" validate:"lte=0"`
	LinkDistance  float64 `yaml:"link_distance" validate:"gt=0"`
	CooldownTicks int     `yaml:"cooldown_ticks" validate:"min=1"`
	AlphaDecay    float64 `yaml:"alpha_decay" validate:"gt=0,lt=1"`
	VelocityDecay float64 `yaml:"velocity_decay" validate:"gte=0,lte=1"`
}

// CameraConfig holds framing durations and geometry.
type CameraConfig struct {
	CenterDuration     time.Duration `yaml:"center_duration" validate:"min=0s"`
	FitDuration        time.Duration `yaml:"fit_duration" validate:"min=0s"`
	CorrectiveDelay    time.Duration `yaml:"corrective_delay" validate:"min=0s"`
	Padding            float64       `yaml:"padding" validate:"gte=0"`
	VerticalShiftRatio float64       `yaml:"vertical_shift_ratio" validate:"gte=0,lte=0.5"`
}

// ViewportConfig describes the graph canvas before the terminal is measured.
type ViewportConfig struct {
	DefaultWidth  float64 `yaml:"default_width" validate:"gt=0"`
	DefaultHeight float64 `yaml:"default_height" validate:"gt=0"`
	CellWidth     float64 `yaml:"cell_width" validate:"gt=0"`
	CellHeight    float64 `yaml:"cell_height" validate:"gt=0"`
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	SplitRatio float64 `yaml:"split_ratio" validate:"gte=0.2,lte=0.8"` // chat panel share of the width
	Greeting   string  `yaml:"greeting,omitempty"`
}

// SourceConfig selects an offline graph source instead of the engine's /graph.
type SourceConfig struct {
	Path  string `yaml:"path,omitempty"`
	Watch bool   `yaml:"watch,omitempty"`
}

// Config is the top-level configuration for kgv.
type Config struct {
	Engine   EngineConfig   `yaml:"engine"`
	Layout   LayoutConfig   `yaml:"layout"`
	Camera   CameraConfig   `yaml:"camera"`
	Viewport ViewportConfig `yaml:"viewport"`
	UI       UIConfig       `yaml:"ui"`
	Source   SourceConfig   `yaml:"source,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	lc := layout.DefaultConfig()
	cc := camera.DefaultConfig()
	bc := engine.DefaultBreakerConfig()
	def := viewport.Default()
	return Config{
		Engine: EngineConfig{
			BaseURL: DefaultEngineURL,
			Timeout: 60 * time.Second,
			Breaker: BreakerConfig{
				ConsecutiveFailures: bc.ConsecutiveFailures,
				OpenTimeout:         bc.Timeout,
				Interval:            bc.Interval,
			},
		},
		Layout: LayoutConfig{
			Charge:        lc.ChargeStrength,
			LinkDistance:  lc.LinkDistance,
			CooldownTicks: lc.CooldownTicks,
			AlphaDecay:    lc.AlphaDecay,
			VelocityDecay: lc.VelocityDecay,
		},
		Camera: CameraConfig{
			CenterDuration:     cc.CenterDuration,
			FitDuration:        cc.FitDuration,
			CorrectiveDelay:    cc.CorrectiveDelay,
			Padding:            cc.Padding,
			VerticalShiftRatio: cc.VerticalShiftRatio,
		},
		Viewport: ViewportConfig{
			DefaultWidth:  def.Width,
			DefaultHeight: def.Height,
			CellWidth:     viewport.DefaultCellBox.Width,
			CellHeight:    viewport.DefaultCellBox.Height,
		},
		UI: UIConfig{
			SplitRatio: 0.55,
		},
	}
}

// ConfigDir returns the XDG config directory for kgv.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "kgv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "kgv")
}

// StateDir returns the XDG state directory for kgv.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "kgv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "kgv")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		cfg := DefaultConfig()
		cfg.applyEnv()
		return cfg, nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path, applies environment overrides
// and validates the result. Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.Source.Path = expandHome(cfg.Source.Path)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if u := strings.TrimSpace(os.Getenv(EnvEngineURL)); u != "" {
		c.Engine.BaseURL = u
	}
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their YAML key so errors match what the user wrote.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks every section against its constraints.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	// Namespace is "Config.engine.base_url"; drop the root type.
	field := e.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "url":
		return fmt.Sprintf("%s must be a URL", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// LayoutConfig maps the layout section onto the engine defaults.
func (c Config) LayoutConfig() layout.Config {
	lc := layout.DefaultConfig()
	lc.ChargeStrength = c.Layout.Charge
	lc.LinkDistance = c.Layout.LinkDistance
	lc.CooldownTicks = c.Layout.CooldownTicks
	lc.AlphaDecay = c.Layout.AlphaDecay
	lc.VelocityDecay = c.Layout.VelocityDecay
	return lc
}

// CameraConfig maps the camera section onto the controller defaults.
func (c Config) CameraConfig() camera.Config {
	cc := camera.DefaultConfig()
	cc.CenterDuration = c.Camera.CenterDuration
	cc.FitDuration = c.Camera.FitDuration
	cc.CorrectiveDelay = c.Camera.CorrectiveDelay
	cc.Padding = c.Camera.Padding
	cc.VerticalShiftRatio = c.Camera.VerticalShiftRatio
	return cc
}

// EngineOptions builds client options from the engine section.
func (c Config) EngineOptions() engine.Options {
	bc := engine.DefaultBreakerConfig()
	bc.ConsecutiveFailures = c.Engine.Breaker.ConsecutiveFailures
	bc.Timeout = c.Engine.Breaker.OpenTimeout
	bc.Interval = c.Engine.Breaker.Interval
	return engine.Options{
		BaseURL: c.Engine.BaseURL,
		Timeout: c.Engine.Timeout,
		Breaker: bc,
	}
}

// CellBox returns the configured terminal cell size in pixels.
func (c Config) CellBox() viewport.CellBox {
	return viewport.CellBox{Width: c.Viewport.CellWidth, Height: c.Viewport.CellHeight}
}

// DefaultViewport returns the canvas size used until the terminal is measured.
func (c Config) DefaultViewport() viewport.Size {
	return viewport.Size{Width: c.Viewport.DefaultWidth, Height: c.Viewport.DefaultHeight}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
