package model

import (
	"time"

	"github.com/google/uuid"
)

// Metrics summarises how well a query was grounded.
type Metrics struct {
	Confidence  float64 `json:"confidence"`
	SourceCount int     `json:"source_count"`
}

// ContextItem is one piece of retrieved evidence. Local (fine-grained) items
// carry a Score; global (thematic) items do not.
type ContextItem struct {
	Text  string   `json:"text"`
	Score *float64 `json:"score,omitempty"`
}

// HasScore reports whether the item carries a match score.
func (c ContextItem) HasScore() bool {
	return c.Score != nil
}

// ScoreValue returns the score or 0 for unscored items.
func (c ContextItem) ScoreValue() float64 {
	if c.Score == nil {
		return 0
	}
	return *c.Score
}

// Evidence holds the two ranked context lists returned with an answer.
type Evidence struct {
	Local  []ContextItem `json:"local"`
	Global []ContextItem `json:"global"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Query string `json:"query"`
}

// ChatResponse is the body returned by POST /chat.
type ChatResponse struct {
	Answer    string   `json:"answer"`
	Metrics   Metrics  `json:"metrics"`
	GraphData Graph    `json:"graph_data"`
	Context   Evidence `json:"context"`
}

// ViewMode selects what the dashboard panel presents.
type ViewMode int

const (
	ViewGraph ViewMode = iota
	ViewEvidence
)

func (v ViewMode) String() string {
	switch v {
	case ViewGraph:
		return "graph"
	case ViewEvidence:
		return "evidence"
	default:
		return "unknown"
	}
}

// Toggle returns the other mode.
func (v ViewMode) Toggle() ViewMode {
	if v == ViewGraph {
		return ViewEvidence
	}
	return ViewGraph
}

// Role identifies the author of a transcript entry.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Message is a single transcript entry.
type Message struct {
	ID   string
	Role Role
	Text string
	At   time.Time
}

// NewMessage stamps a transcript entry with a fresh id.
func NewMessage(role Role, text string, at time.Time) Message {
	return Message{
		ID:   uuid.NewString(),
		Role: role,
		Text: text,
		At:   at,
	}
}
