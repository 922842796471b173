// Package datasource loads a knowledge graph from local files for offline use.
// It recognises node-link JSON documents and SQLite databases, validates them,
// and picks the freshest valid source when a directory holds several.
package datasource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrUnsupported is returned for paths whose extension names no known format.
var ErrUnsupported = errors.New("unsupported graph source")

// SourceType identifies the format of a local graph source.
type SourceType string

const (
	// SourceTypeSQLite is a database with nodes and links tables.
	SourceTypeSQLite SourceType = "sqlite"
	// SourceTypeJSON is a node-link JSON document ({"nodes": [...], "links": [...]}).
	SourceTypeJSON SourceType = "json"
)

// Priority values for source types (higher = preferred on equal timestamps).
const (
	PrioritySQLite = 100
	PriorityJSON   = 50
)

// DataSource describes one candidate graph file.
type DataSource struct {
	Type     SourceType `json:"type"`
	Path     string     `json:"path"`
	Priority int        `json:"priority"`
	ModTime  time.Time  `json:"mod_time"`
	Size     int64      `json:"size"`
	// Valid and ValidationError are set by ValidateSource.
	Valid           bool   `json:"valid"`
	ValidationError string `json:"validation_error,omitempty"`
	NodeCount       int    `json:"node_count"`
}

// String returns a human-readable description of the source.
func (s DataSource) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (%s, priority=%d, mod=%s, nodes=%d, %s)",
		s.Path, s.Type, s.Priority, s.ModTime.Format(time.RFC3339), s.NodeCount, status)
}

// DetectType maps a file extension to a source type.
func DetectType(path string) (SourceType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return SourceTypeJSON, nil
	case ".db", ".sqlite", ".sqlite3":
		return SourceTypeSQLite, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
}

// Stat builds a DataSource for a single file.
func Stat(path string) (DataSource, error) {
	typ, err := DetectType(path)
	if err != nil {
		return DataSource{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return DataSource{}, fmt.Errorf("stat graph source: %w", err)
	}
	if info.IsDir() {
		return DataSource{}, fmt.Errorf("%w: %s is a directory", ErrUnsupported, path)
	}
	prio := PriorityJSON
	if typ == SourceTypeSQLite {
		prio = PrioritySQLite
	}
	return DataSource{
		Type:     typ,
		Path:     path,
		Priority: prio,
		ModTime:  info.ModTime(),
		Size:     info.Size(),
	}, nil
}

// DiscoverSources lists the graph files in dir, validated and sorted freshest
// first. Invalid sources are dropped unless includeInvalid is set.
func DiscoverSources(dir string, includeInvalid bool) ([]DataSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}

	var sources []DataSource
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		src, err := Stat(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		_ = ValidateSource(&src)
		if !src.Valid && !includeInvalid {
			continue
		}
		sources = append(sources, src)
	}

	sort.Slice(sources, func(i, j int) bool {
		if sources[i].ModTime.Equal(sources[j].ModTime) {
			return sources[i].Priority > sources[j].Priority
		}
		return sources[i].ModTime.After(sources[j].ModTime)
	})
	return sources, nil
}

// SelectBestSource returns the first valid source of an already sorted list.
func SelectBestSource(sources []DataSource) (DataSource, error) {
	for _, s := range sources {
		if s.Valid {
			return s, nil
		}
	}
	return DataSource{}, errors.New("no valid graph source found")
}

// ValidateSource loads the source and records whether it holds a usable graph.
func ValidateSource(src *DataSource) error {
	g, err := LoadFromSource(*src)
	if err != nil {
		src.Valid = false
		src.ValidationError = err.Error()
		return err
	}
	if g.Empty() {
		src.Valid = false
		src.ValidationError = "graph has no nodes"
		return errors.New(src.ValidationError)
	}
	src.Valid = true
	src.ValidationError = ""
	src.NodeCount = len(g.Nodes)
	return nil
}
