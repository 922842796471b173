package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/kgview/internal/datasource"
	"github.com/vanderheijden86/kgview/pkg/export"
	"github.com/vanderheijden86/kgview/pkg/model"
	"github.com/vanderheijden86/kgview/pkg/watcher"
)

// FrameInterval paces the animation loop at roughly 60 frames per second.
const FrameInterval = time.Second / 60

// Engine is the part of the Knowledge Engine client the UI needs.
type Engine interface {
	FetchGraph(ctx context.Context) (model.Graph, error)
	Chat(ctx context.Context, query string) (model.ChatResponse, error)
}

// GraphLoadedMsg carries the startup graph, from the engine or a local source.
type GraphLoadedMsg struct {
	Graph  model.Graph
	Source string
	Err    error
}

// ChatResultMsg carries the outcome of one query.
type ChatResultMsg struct {
	Query    string
	Response model.ChatResponse
	Err      error
}

// FileChangedMsg is sent when the local graph source changes on disk.
type FileChangedMsg struct{}

// SourceReloadedMsg carries a graph re-read after a FileChangedMsg.
type SourceReloadedMsg struct {
	Graph model.Graph
	Err   error
}

// SnapshotSavedMsg reports the result of an export.
type SnapshotSavedMsg struct {
	Path string
	Err  error
}

// frameMsg drives one animation frame. Frames from a superseded loop carry an
// older gen and are dropped.
type frameMsg struct {
	at  time.Time
	gen uint64
}

func frameCmd(gen uint64) tea.Cmd {
	return tea.Tick(FrameInterval, func(t time.Time) tea.Msg {
		return frameMsg{at: t, gen: gen}
	})
}

func withTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}

// FetchGraphCmd loads the full graph from the engine.
func FetchGraphCmd(e Engine, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		g, err := e.FetchGraph(ctx)
		return GraphLoadedMsg{Graph: g, Source: "engine", Err: err}
	}
}

// LoadSourceCmd loads the startup graph from a file or directory.
func LoadSourceCmd(path string) tea.Cmd {
	return func() tea.Msg {
		g, err := datasource.Load(path)
		return GraphLoadedMsg{Graph: g, Source: path, Err: err}
	}
}

// ReloadSourceCmd re-reads the local source after a change.
func ReloadSourceCmd(path string) tea.Cmd {
	return func() tea.Msg {
		g, err := datasource.Load(path)
		return SourceReloadedMsg{Graph: g, Err: err}
	}
}

// ChatCmd sends one query to the engine.
func ChatCmd(e Engine, query string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		resp, err := e.Chat(ctx, query)
		return ChatResultMsg{Query: query, Response: resp, Err: err}
	}
}

// WatchFileCmd returns a command that waits for file changes and sends FileChangedMsg
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{}
	}
}

// SnapshotCmd exports g as a PNG into dir.
func SnapshotCmd(opts export.GraphSnapshotOptions, dir string, at time.Time) tea.Cmd {
	opts.Path = filepath.Join(dir, fmt.Sprintf("kgv-%s.png", at.Format("20060102-150405")))
	return func() tea.Msg {
		err := export.SaveGraphSnapshot(opts)
		return SnapshotSavedMsg{Path: opts.Path, Err: err}
	}
}
