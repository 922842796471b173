package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/kgview/pkg/model"
)

// ══════════════════════════════════════════════════════════════════════════════
// DESIGN TOKENS - Consistent spacing, colors, and visual language
// ══════════════════════════════════════════════════════════════════════════════

// Spacing constants for consistent layout (in characters)
const (
	SpaceXS = 1
	SpaceSM = 2
	SpaceMD = 3
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Slate background with a sky accent, matching the graph canvas
// Light mode colors tuned for WCAG AA compliance (contrast ratio >= 4.5:1)
// ══════════════════════════════════════════════════════════════════════════════

var (
	ColorBg          = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#020617"}
	ColorBgSubtle    = lipgloss.AdaptiveColor{Light: "#F1F5F9", Dark: "#0F172A"}
	ColorBgHighlight = lipgloss.AdaptiveColor{Light: "#CBD5E1", Dark: "#1E293B"}
	ColorText        = lipgloss.AdaptiveColor{Light: "#0F172A", Dark: "#E2E8F0"}
	ColorSubtext     = lipgloss.AdaptiveColor{Light: "#475569", Dark: "#94A3B8"}
	ColorMuted       = lipgloss.AdaptiveColor{Light: "#64748B", Dark: "#64748B"}

	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0369A1", Dark: "#38BDF8"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#22D3EE"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}

	// Chat bubbles
	ColorUserBubble = lipgloss.AdaptiveColor{Light: "#0369A1", Dark: "#0284C7"}
	ColorBotBubble  = lipgloss.AdaptiveColor{Light: "#E2E8F0", Dark: "#1E293B"}
)

// ══════════════════════════════════════════════════════════════════════════════
// PANEL STYLES - For the chat / dashboard split
// ══════════════════════════════════════════════════════════════════════════════

var (
	// PanelStyle is the default style for unfocused panels
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBgHighlight)

	// FocusedPanelStyle is the style for focused panels
	FocusedPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorPrimary)
)

// panelFrame is the border width a panel adds on each axis.
const panelFrame = 2

// ══════════════════════════════════════════════════════════════════════════════
// BADGES
// ══════════════════════════════════════════════════════════════════════════════

// RenderModeBadge renders the active dashboard view as a tab strip.
func RenderModeBadge(mode model.ViewMode) string {
	active := lipgloss.NewStyle().
		Background(ColorPrimary).
		Foreground(ColorBg).
		Bold(true).
		Padding(0, 1)
	idle := lipgloss.NewStyle().
		Foreground(ColorMuted).
		Padding(0, 1)

	graph, evidence := idle, idle
	if mode == model.ViewGraph {
		graph = active
	} else {
		evidence = active
	}
	return graph.Render("Graph") + evidence.Render("Evidence")
}

// RenderConfidence renders a confidence in [0,1] as a percentage coloured by
// strength.
func RenderConfidence(confidence float64) string {
	var color lipgloss.AdaptiveColor
	switch {
	case confidence >= 0.75:
		color = ColorSuccess
	case confidence >= 0.4:
		color = ColorWarning
	default:
		color = ColorDanger
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true).
		Render(fmt.Sprintf("%.0f%%", confidence*100))
}

// ══════════════════════════════════════════════════════════════════════════════
// METRIC VISUALIZATION
// ══════════════════════════════════════════════════════════════════════════════

// RenderMiniBar renders a mini horizontal bar for a value between 0 and 1
func RenderMiniBar(value float64, width int, t Theme) string {
	if width <= 0 {
		return ""
	}
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}

	filled := int(value * float64(width))
	if filled > width {
		filled = width
	}

	var barColor lipgloss.AdaptiveColor
	switch {
	case value >= 0.75:
		barColor = t.Success
	case value >= 0.5:
		barColor = t.Primary
	case value >= 0.25:
		barColor = t.Warning
	default:
		barColor = t.Muted
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return t.Renderer.NewStyle().Foreground(barColor).Render(bar)
}

// ══════════════════════════════════════════════════════════════════════════════
// DIVIDERS AND SEPARATORS
// ══════════════════════════════════════════════════════════════════════════════

// RenderDivider renders a horizontal divider line
func RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(ColorBgHighlight).
		Render(strings.Repeat("─", width))
}

// RenderKeyHint renders "key desc" for the footer.
func RenderKeyHint(key, desc string) string {
	return lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Render(key) +
		" " + lipgloss.NewStyle().Foreground(ColorMuted).Render(desc)
}
