package store

import (
	"time"

	"github.com/vanderheijden86/kgview/pkg/model"
)

// EvidenceStore holds the evidence and metrics of the latest completed query.
type EvidenceStore struct {
	evidence model.Evidence
	metrics  model.Metrics
}

// NewEvidenceStore returns a store at the zero baseline.
func NewEvidenceStore() *EvidenceStore {
	return &EvidenceStore{}
}

// Replace swaps both evidence lists and the metrics in one step.
func (s *EvidenceStore) Replace(ev model.Evidence, m model.Metrics) {
	s.evidence = model.Evidence{
		Local:  append([]model.ContextItem(nil), ev.Local...),
		Global: append([]model.ContextItem(nil), ev.Global...),
	}
	s.metrics = m
}

// Evidence returns the current evidence lists.
func (s *EvidenceStore) Evidence() model.Evidence {
	return s.evidence
}

// Metrics returns the current metrics.
func (s *EvidenceStore) Metrics() model.Metrics {
	return s.metrics
}

// Transcript is the append-only chat history.
type Transcript struct {
	messages []model.Message
	now      func() time.Time
}

// NewTranscript returns a transcript optionally seeded with a greeting.
func NewTranscript(greeting string) *Transcript {
	t := &Transcript{now: time.Now}
	if greeting != "" {
		t.Append(model.RoleBot, greeting)
	}
	return t
}

// Append adds an entry and returns it.
func (t *Transcript) Append(role model.Role, text string) model.Message {
	msg := model.NewMessage(role, text, t.now())
	t.messages = append(t.messages, msg)
	return msg
}

// Messages returns the entries in submission order.
func (t *Transcript) Messages() []model.Message {
	return t.messages
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Last returns the most recent entry of the given role.
func (t *Transcript) Last(role model.Role) (model.Message, bool) {
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Role == role {
			return t.messages[i], true
		}
	}
	return model.Message{}, false
}
