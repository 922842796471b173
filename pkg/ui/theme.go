package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals use the
// terminal's own background instead of a down-converted approximation.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary lipgloss.AdaptiveColor
	Subtext lipgloss.AdaptiveColor
	Muted   lipgloss.AdaptiveColor
	Border  lipgloss.AdaptiveColor
	Success lipgloss.AdaptiveColor
	Warning lipgloss.AdaptiveColor
	Danger  lipgloss.AdaptiveColor

	// Styles
	Base         lipgloss.Style
	Header       lipgloss.Style
	UserBubble   lipgloss.Style
	BotBubble    lipgloss.Style
	BusyText     lipgloss.Style
	ErrorText    lipgloss.Style
	MutedText    lipgloss.Style
	SectionTitle lipgloss.Style
	ScoreLabel   lipgloss.Style
	Overlay      lipgloss.Style
	Status       lipgloss.Style
}

// DefaultTheme returns the slate and sky dashboard theme (adaptive).
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary: ColorPrimary,
		Subtext: ColorSubtext,
		Muted:   ColorMuted,
		Border:  ColorBgHighlight,
		Success: ColorSuccess,
		Warning: ColorWarning,
		Danger:  ColorDanger,
	}

	t.Base = r.NewStyle().Foreground(ColorText)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(ColorBg).
		Bold(true).
		Padding(0, 1)

	t.UserBubble = r.NewStyle().
		Background(ColorUserBubble).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#F8FAFC"}).
		Padding(0, 1)

	t.BotBubble = r.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(t.Primary).
		PaddingLeft(1)

	t.BusyText = r.NewStyle().Foreground(t.Primary).Italic(true)
	t.ErrorText = r.NewStyle().Foreground(t.Danger)
	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.SectionTitle = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.ScoreLabel = r.NewStyle().Foreground(ColorInfo).Bold(true)

	t.Overlay = r.NewStyle().
		Background(ThemeBg("#0F172A")).
		Foreground(ColorText).
		Padding(0, 1)

	t.Status = r.NewStyle().Foreground(t.Subtext)

	return t
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
