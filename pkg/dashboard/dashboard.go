// Package dashboard is the view orchestrator. It routes query results into the
// graph and evidence stores, keeps the transcript, tracks which presentation
// mode is active and enforces one query in flight at a time.
package dashboard

import (
	"strings"

	"github.com/vanderheijden86/kgview/pkg/debug"
	"github.com/vanderheijden86/kgview/pkg/model"
	"github.com/vanderheijden86/kgview/pkg/store"
)

// FallbackMessage is appended to the transcript when a query fails.
const FallbackMessage = "Error: Could not reach the Knowledge Engine."

// BusyText is shown while a query is in flight.
const BusyText = "Retrieving Context & Generating Graph..."

// DefaultGreeting opens every session.
const DefaultGreeting = "Hello! I am your Knowledge Graph assistant. Ask me anything about the indexed corpus."

// Outcome describes what a completed query changed.
type Outcome struct {
	GraphReplaced bool
	Mode          model.ViewMode
}

// Dashboard is the session state machine. It is owned by the UI event loop
// and is not safe for concurrent use.
type Dashboard struct {
	graphs     *store.GraphStore
	evidence   *store.EvidenceStore
	transcript *store.Transcript

	mode     model.ViewMode
	busy     bool
	inFlight string
}

// New returns a dashboard in Graph mode with a transcript holding greeting.
func New(greeting string) *Dashboard {
	return &Dashboard{
		graphs:     store.NewGraphStore(),
		evidence:   store.NewEvidenceStore(),
		transcript: store.NewTranscript(greeting),
		mode:       model.ViewGraph,
	}
}

// Submit validates a query and marks the dashboard busy. Blank input and
// submissions while another query is in flight are ignored.
func (d *Dashboard) Submit(text string) (query string, ok bool) {
	query = strings.TrimSpace(text)
	if query == "" {
		return "", false
	}
	if d.busy {
		debug.Log("dashboard: submit ignored, %q still in flight", d.inFlight)
		return "", false
	}
	d.transcript.Append(model.RoleUser, query)
	d.busy = true
	d.inFlight = query
	return query, true
}

// Complete applies a successful answer: transcript, metrics, evidence and,
// when it has nodes, the scoped graph, which also brings the graph view back.
func (d *Dashboard) Complete(resp model.ChatResponse) Outcome {
	d.transcript.Append(model.RoleBot, resp.Answer)
	d.evidence.Replace(resp.Context, resp.Metrics)
	replaced := d.graphs.SetCurrent(resp.GraphData)
	if replaced {
		d.mode = model.ViewGraph
	}
	d.busy = false
	d.inFlight = ""
	return Outcome{GraphReplaced: replaced, Mode: d.mode}
}

// Fail records a failed query with a single fallback entry and leaves every
// other piece of state as it was.
func (d *Dashboard) Fail(err error) {
	debug.Log("dashboard: query %q failed: %v", d.inFlight, err)
	d.transcript.Append(model.RoleBot, FallbackMessage)
	d.busy = false
	d.inFlight = ""
}

// LoadFull installs the startup graph as both the full and current snapshot.
func (d *Dashboard) LoadFull(g model.Graph) {
	d.graphs.SetFull(g)
	debug.Log("dashboard: full graph loaded, %d nodes", d.graphs.Full().NodeCount())
}

// LoadFullFailed records a failed startup fetch. The graph stays empty.
func (d *Dashboard) LoadFullFailed(err error) {
	debug.Warn("dashboard: initial graph fetch failed: %v", err)
}

// Reset shows the full graph again. It always returns true: the caller must
// schedule a delayed fit so the restored nodes are measured after they mount.
func (d *Dashboard) Reset() bool {
	d.graphs.Reset()
	return true
}

// Toggle flips between the graph and evidence views.
func (d *Dashboard) Toggle() model.ViewMode {
	d.mode = d.mode.Toggle()
	return d.mode
}

// SetMode selects a view directly.
func (d *Dashboard) SetMode(m model.ViewMode) {
	d.mode = m
}

// Mode returns the active view.
func (d *Dashboard) Mode() model.ViewMode {
	return d.mode
}

// Busy reports whether a query is in flight.
func (d *Dashboard) Busy() bool {
	return d.busy
}

// Current returns the displayed graph snapshot.
func (d *Dashboard) Current() *store.Snapshot {
	return d.graphs.Current()
}

// Full returns the full corpus snapshot.
func (d *Dashboard) Full() *store.Snapshot {
	return d.graphs.Full()
}

// Evidence returns the evidence of the latest completed query.
func (d *Dashboard) Evidence() model.Evidence {
	return d.evidence.Evidence()
}

// Metrics returns the metrics of the latest completed query.
func (d *Dashboard) Metrics() model.Metrics {
	return d.evidence.Metrics()
}

// Messages returns the transcript in order.
func (d *Dashboard) Messages() []model.Message {
	return d.transcript.Messages()
}

// LastAnswer returns the most recent bot message.
func (d *Dashboard) LastAnswer() (model.Message, bool) {
	return d.transcript.Last(model.RoleBot)
}
