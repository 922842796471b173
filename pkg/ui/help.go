package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/kgview/pkg/model"
)

// helpContent holds the quick reference for each dashboard view. It should
// fit on one screen without scrolling.
var helpContent = map[model.ViewMode]string{
	model.ViewGraph:    helpGraph,
	model.ViewEvidence: helpEvidence,
}

const helpChat = `Chat
  Enter     Ask the question
  ↑/↓       Scroll the transcript
  PgUp/PgDn Scroll the transcript
  ^y        Copy the last answer`

const helpGraph = `Graph
  Tab       Show the evidence
  ^x        Re-center the camera
  ^r        Show the full graph again
  ^s        Save a PNG snapshot`

const helpEvidence = `Evidence
  Tab       Back to the graph
  PgUp/PgDn Scroll the cards`

// HelpText returns the quick reference for mode.
func HelpText(mode model.ViewMode) string {
	body, ok := helpContent[mode]
	if !ok {
		body = helpGraph
	}
	return helpChat + "\n\n" + body + "\n\nGeneral\n  F1        Toggle this help\n  Esc/^c    Quit"
}

// RenderHelp renders the quick reference modal.
func RenderHelp(mode model.ViewMode, theme Theme, width int) string {
	r := theme.Renderer

	modalWidth := 48
	if modalWidth > width-4 {
		modalWidth = width - 4
	}

	var b strings.Builder
	b.WriteString(theme.SectionTitle.Render("Quick Reference"))
	b.WriteString("\n")
	b.WriteString(r.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(modalWidth-6, 1))))
	b.WriteString("\n\n")
	b.WriteString(r.NewStyle().Foreground(theme.Subtext).Render(HelpText(mode)))
	b.WriteString("\n\n")
	b.WriteString(theme.MutedText.Italic(true).Render("F1 or Esc to close"))

	return r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Primary).
		Padding(1, 2).
		Width(modalWidth).
		Render(b.String())
}
