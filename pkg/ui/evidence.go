package ui

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/kgview/pkg/model"
)

const (
	EvidenceLocalTitle  = "LOCAL CONTEXT (SPECIFICS)"
	EvidenceGlobalTitle = "GLOBAL CONTEXT (THEMES)"
	NoLocalEvidence     = "No specific text found."
	NoGlobalEvidence    = "No thematic summaries found."
	CommunitySummary    = "COMMUNITY SUMMARY"
)

// ScoreLabel formats the header of a local evidence card.
func ScoreLabel(score float64) string {
	return fmt.Sprintf("MATCH SCORE: %.2f", score)
}

// RenderEvidence renders both evidence lists as stacked cards at the given
// width. Local items are shown with their match score, global items as
// community summaries.
func RenderEvidence(ev model.Evidence, width int, t Theme) string {
	if width < 12 {
		width = 12
	}
	inner := width - 2 // card border

	var sb strings.Builder
	sb.WriteString(t.SectionTitle.Render(EvidenceLocalTitle))
	sb.WriteString("\n\n")
	if len(ev.Local) == 0 {
		sb.WriteString(t.MutedText.Italic(true).Render(NoLocalEvidence))
		sb.WriteString("\n")
	}
	for _, item := range ev.Local {
		header := t.ScoreLabel.Render(ScoreLabel(item.ScoreValue())) + " " +
			RenderMiniBar(item.ScoreValue(), 10, t)
		sb.WriteString(renderCard(header, item.Text, inner, t, false))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(t.Renderer.NewStyle().Foreground(t.Success).Bold(true).Render(EvidenceGlobalTitle))
	sb.WriteString("\n\n")
	if len(ev.Global) == 0 {
		sb.WriteString(t.MutedText.Italic(true).Render(NoGlobalEvidence))
		sb.WriteString("\n")
	}
	for _, item := range ev.Global {
		header := t.Renderer.NewStyle().Foreground(t.Success).Render(CommunitySummary)
		sb.WriteString(renderCard(header, item.Text, inner, t, true))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderCard(header, text string, width int, t Theme, italic bool) string {
	body := strings.Join(wrapText(`"`+strings.TrimSpace(text)+`"`, width-2), "\n")
	bodyStyle := t.Base
	if italic {
		bodyStyle = t.Renderer.NewStyle().Foreground(t.Subtext).Italic(true)
	}
	content := header + "\n" + RenderDivider(width-2) + "\n" + bodyStyle.Render(body)
	return PanelStyle.Width(width).Padding(0, 1).Render(content)
}
