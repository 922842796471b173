// Package ui is the kgv terminal dashboard: a chat panel beside a live
// knowledge graph that can be flipped to the evidence behind the last answer.
package ui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	bviewport "github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/kgview/internal/datasource"
	"github.com/vanderheijden86/kgview/pkg/camera"
	"github.com/vanderheijden86/kgview/pkg/dashboard"
	"github.com/vanderheijden86/kgview/pkg/debug"
	"github.com/vanderheijden86/kgview/pkg/export"
	"github.com/vanderheijden86/kgview/pkg/layout"
	"github.com/vanderheijden86/kgview/pkg/model"
	"github.com/vanderheijden86/kgview/pkg/viewport"
	"github.com/vanderheijden86/kgview/pkg/watcher"
)

// Default terminal size used until the first WindowSizeMsg arrives.
const (
	defaultWidth  = 120
	defaultHeight = 36
)

// DefaultSplitRatio is the chat panel's share of the width.
const DefaultSplitRatio = 0.55

// Options wires the model to its collaborators.
type Options struct {
	Engine     Engine
	Timeout    time.Duration
	Greeting   string
	SplitRatio float64

	Layout layout.Config
	Camera camera.Config
	Cell   viewport.CellBox
	// Measure sizes the graph container before the first WindowSizeMsg.
	Measure viewport.MeasureFunc

	// SourcePath loads the startup graph from disk instead of the engine.
	SourcePath string
	Watcher    *watcher.Watcher

	SnapshotDir string
}

// Model is the root Bubble Tea model.
type Model struct {
	opts  Options
	theme Theme

	dash     *dashboard.Dashboard
	graph    *GraphView
	chat     ChatPanel
	evidence bviewport.Model

	width, height int
	chatWidth     int
	dashWidth     int

	status    string
	statusErr bool

	framing  bool
	frameGen uint64

	showHelp bool

	now  func() time.Time
	copy func(string) error
}

// NewModel returns a model ready to render at a default size.
func NewModel(opts Options) Model {
	if opts.Greeting == "" {
		opts.Greeting = dashboard.DefaultGreeting
	}
	if opts.SplitRatio <= 0 || opts.SplitRatio >= 1 {
		opts.SplitRatio = DefaultSplitRatio
	}
	if opts.Layout == (layout.Config{}) {
		opts.Layout = layout.DefaultConfig()
	}
	if opts.Camera == (camera.Config{}) {
		opts.Camera = camera.DefaultConfig()
	}
	if opts.Cell.Width <= 0 || opts.Cell.Height <= 0 {
		opts.Cell = viewport.DefaultCellBox
	}
	if opts.SnapshotDir == "" {
		opts.SnapshotDir = "."
	}

	theme := DefaultTheme(lipgloss.NewRenderer(os.Stdout))
	m := Model{
		opts:     opts,
		theme:    theme,
		dash:     dashboard.New(opts.Greeting),
		graph:    NewGraphView(opts.Layout, opts.Camera, opts.Cell, theme.Renderer),
		chat:     NewChatPanel(theme),
		evidence: bviewport.New(0, 0),
		now:      time.Now,
		copy:     clipboard.WriteAll,
	}
	m.resize(defaultWidth, defaultHeight)
	if opts.Measure != nil {
		m.graph.Mount(opts.Measure, opts.Cell)
	}
	return m
}

// TerminalMeasure measures the graph container's share of the terminal
// attached to f.
func TerminalMeasure(f *os.File, opts Options) viewport.MeasureFunc {
	split := opts.SplitRatio
	if split <= 0 || split >= 1 {
		split = DefaultSplitRatio
	}
	return viewport.TerminalMeasure(f, opts.Cell, 1-split, reservedRows)
}

// Close releases the graph view's size subscription.
func (m Model) Close() {
	m.graph.Unmount()
}

// Dashboard exposes the session state.
func (m Model) Dashboard() *dashboard.Dashboard { return m.dash }

// Graph exposes the graph view.
func (m Model) Graph() *GraphView { return m.graph }

// Status returns the footer message.
func (m Model) Status() string { return m.status }

// Init loads the startup graph and starts watching the local source.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	switch {
	case m.opts.SourcePath != "":
		cmds = append(cmds, LoadSourceCmd(m.opts.SourcePath))
	case m.opts.Engine != nil:
		cmds = append(cmds, FetchGraphCmd(m.opts.Engine, m.opts.Timeout))
	}
	if m.opts.Watcher != nil {
		cmds = append(cmds, WatchFileCmd(m.opts.Watcher))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, m.startFrames()

	case GraphLoadedMsg:
		if msg.Err != nil {
			m.dash.LoadFullFailed(msg.Err)
			return m, nil
		}
		m.dash.LoadFull(msg.Graph)
		m.graph.Show(m.dash.Current())
		m.setStatus(fmt.Sprintf("Loaded %d nodes from %s", m.dash.Full().NodeCount(), msg.Source))
		return m, m.startFrames()

	case ChatResultMsg:
		// A failure surfaces only as the transcript fallback.
		if msg.Err != nil {
			m.dash.Fail(msg.Err)
		} else {
			out := m.dash.Complete(msg.Response)
			if out.GraphReplaced {
				m.graph.Show(m.dash.Current())
			}
		}
		m.status, m.statusErr = "", false
		m.chat.SetBusy(false)
		m.chat.SetMessages(m.dash.Messages(), m.theme)
		m.refreshEvidence()
		return m, m.startFrames()

	case FileChangedMsg:
		debug.Log("ui: graph source changed, reloading %s", m.opts.SourcePath)
		if m.opts.SourcePath != "" {
			cmds = append(cmds, ReloadSourceCmd(m.opts.SourcePath))
		}
		if m.opts.Watcher != nil {
			cmds = append(cmds, WatchFileCmd(m.opts.Watcher))
		}
		return m, tea.Batch(cmds...)

	case SourceReloadedMsg:
		if msg.Err != nil {
			debug.Warn("ui: reload of %s failed, keeping previous graph: %v", m.opts.SourcePath, msg.Err)
			return m, nil
		}
		diff := datasource.DiffGraphs(m.dash.Full().Graph, msg.Graph)
		if !diff.Changed() {
			return m, nil
		}
		m.dash.LoadFull(msg.Graph)
		m.graph.Show(m.dash.Current())
		m.setStatus("Reloaded: " + diff.Summary())
		return m, m.startFrames()

	case SnapshotSavedMsg:
		if msg.Err != nil {
			m.setError(fmt.Sprintf("Snapshot failed: %v", msg.Err))
		} else {
			m.setStatus("Saved " + msg.Path)
		}
		return m, nil

	case frameMsg:
		if msg.gen != m.frameGen {
			return m, nil
		}
		more := m.graph.Step(msg.at, m.dash.Mode())
		if !more || (m.dash.Mode() != model.ViewGraph && !m.graph.Animating()) {
			m.framing = false
			return m, nil
		}
		return m, frameCmd(m.frameGen)

	case tea.KeyMsg:
		if handled, cmd := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	if m.dash.Mode() == model.ViewEvidence {
		if k, ok := msg.(tea.KeyMsg); ok && (k.String() == "pgup" || k.String() == "pgdown") {
			var cmd tea.Cmd
			m.evidence, cmd = m.evidence.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleKey runs global bindings. Unhandled keys fall through to the input.
func (m *Model) handleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	now := m.now()
	switch msg.String() {
	case "ctrl+c":
		return true, tea.Quit

	case "esc":
		if m.showHelp {
			m.showHelp = false
			return true, nil
		}
		return true, tea.Quit

	case "f1":
		m.showHelp = !m.showHelp
		return true, nil

	case "enter":
		query, ok := m.dash.Submit(m.chat.Value())
		if !ok {
			return true, nil
		}
		m.chat.ClearInput()
		m.chat.SetMessages(m.dash.Messages(), m.theme)
		spin := m.chat.SetBusy(true)
		if m.opts.Engine == nil {
			return true, tea.Batch(spin, func() tea.Msg {
				return ChatResultMsg{Query: query, Err: fmt.Errorf("no engine configured")}
			})
		}
		return true, tea.Batch(spin, ChatCmd(m.opts.Engine, query, m.opts.Timeout))

	case "tab":
		mode := m.dash.Toggle()
		m.refreshEvidence()
		m.setStatus("View: " + mode.String())
		return true, m.startFrames()

	case "ctrl+r":
		if m.dash.Reset() {
			m.graph.Show(m.dash.Current())
			m.graph.ResetFit(now)
		}
		m.setStatus(fmt.Sprintf("Showing full graph (%d nodes)", m.dash.Current().NodeCount()))
		return true, m.startFrames()

	case "ctrl+x":
		m.graph.Recenter(now)
		return true, m.startFrames()

	case "ctrl+s":
		snap := m.dash.Current()
		if snap.NodeCount() == 0 {
			m.setError("Nothing to export")
			return true, nil
		}
		return true, SnapshotCmd(export.GraphSnapshotOptions{
			Title:  m.snapshotTitle(),
			Graph:  snap.Graph,
			Layout: m.opts.Layout,
			Camera: m.opts.Camera,
		}, m.opts.SnapshotDir, now)

	case "ctrl+y":
		msgs := m.dash.Messages()
		last, ok := m.dash.LastAnswer()
		if !ok || len(msgs) <= 1 {
			m.setError("No answer to copy")
			return true, nil
		}
		if err := m.copy(last.Text); err != nil {
			m.setError(fmt.Sprintf("Clipboard error: %v", err))
		} else {
			m.setStatus("Copied answer to clipboard")
		}
		return true, nil
	}
	return false, nil
}

// startFrames starts the animation loop unless one is already running.
func (m *Model) startFrames() tea.Cmd {
	if m.framing {
		return nil
	}
	m.framing = true
	m.frameGen++
	return frameCmd(m.frameGen)
}

// reservedRows are the rows around the graph canvas: footer, panel border,
// tab strip and overlay.
const reservedRows = 1 + panelFrame + 2

// resize splits the screen between chat and dashboard and sizes the graph
// container. One row is kept for the footer.
func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	bodyH := max(h-1, 6)

	m.chatWidth = clampInt(int(float64(w)*m.opts.SplitRatio), 20, max(w-20, 20))
	m.dashWidth = max(w-m.chatWidth, 20)

	m.chat.SetSize(m.chatWidth-panelFrame, bodyH-panelFrame)

	innerW := m.dashWidth - panelFrame
	innerH := bodyH - panelFrame - 2 // tab strip and overlay rows
	m.graph.Resize(innerW, max(innerH, 1))
	m.evidence.Width = innerW
	m.evidence.Height = max(innerH, 1)
	m.refreshEvidence()
}

func (m *Model) refreshEvidence() {
	m.evidence.SetContent(RenderEvidence(m.dash.Evidence(), m.evidence.Width, m.theme))
}

func (m *Model) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *Model) setError(s string) {
	m.status, m.statusErr = s, true
}

func (m Model) snapshotTitle() string {
	msgs := m.dash.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == model.RoleUser {
			return msgs[i].Text
		}
	}
	return ""
}

func (m Model) View() string {
	chat := FocusedPanelStyle.
		Width(m.chatWidth - panelFrame).
		Height(m.height - 1 - panelFrame).
		Render(m.chat.View(m.theme))
	dash := PanelStyle.
		Width(m.dashWidth - panelFrame).
		Height(m.height - 1 - panelFrame).
		Render(m.renderDashboard())

	body := lipgloss.JoinHorizontal(lipgloss.Top, chat, dash)
	if m.showHelp {
		body = lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center,
			RenderHelp(m.dash.Mode(), m.theme, m.width))
	}

	finalStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		MaxHeight(m.height)
	return finalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, body, m.renderFooter()))
}

func (m Model) renderDashboard() string {
	innerW := m.dashWidth - panelFrame
	title := m.theme.SectionTitle.Render("Knowledge Graph")
	tabs := RenderModeBadge(m.dash.Mode())
	gap := max(innerW-lipgloss.Width(title)-lipgloss.Width(tabs), 1)
	header := title + strings.Repeat(" ", gap) + tabs

	var content, overlay string
	if m.dash.Mode() == model.ViewGraph {
		content = m.graph.View(m.theme)
		overlay = m.theme.Overlay.Width(innerW).Render(
			Overlay(m.dash.Current().NodeCount(), m.dash.Metrics()) + "  " +
				RenderKeyHint("^x", "re-center") + "  " + RenderKeyHint("^r", "reset"))
	} else {
		content = m.evidence.View()
		overlay = m.theme.Overlay.Width(innerW).Render(
			fmt.Sprintf("%d sources", m.dash.Metrics().SourceCount) + "  " +
				RenderKeyHint("pgup/pgdn", "scroll"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, content, overlay)
}

func (m Model) renderFooter() string {
	hints := strings.Join([]string{
		RenderKeyHint("enter", "ask"),
		RenderKeyHint("tab", "graph/evidence"),
		RenderKeyHint("^s", "snapshot"),
		RenderKeyHint("^y", "copy answer"),
		RenderKeyHint("f1", "help"),
		RenderKeyHint("esc", "quit"),
	}, "  ")
	if m.status == "" {
		return hints
	}
	style := m.theme.Status
	if m.statusErr {
		style = m.theme.ErrorText
	}
	status := style.Render(truncate(m.status, max(m.width-lipgloss.Width(hints)-2, 10)))
	return status + "  " + hints
}
