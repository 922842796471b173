package datasource

import (
	"fmt"
	"os"

	"github.com/vanderheijden86/kgview/pkg/metrics"
	"github.com/vanderheijden86/kgview/pkg/model"

	"github.com/goccy/go-json"
)

// Load reads a graph from path. When path is a directory the freshest valid
// source inside it is used.
func Load(path string) (model.Graph, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.Graph{}, fmt.Errorf("stat graph source: %w", err)
	}
	if info.IsDir() {
		sources, err := DiscoverSources(path, false)
		if err != nil {
			return model.Graph{}, err
		}
		best, err := SelectBestSource(sources)
		if err != nil {
			return model.Graph{}, fmt.Errorf("%s: %w", path, err)
		}
		return LoadFromSource(best)
	}

	src, err := Stat(path)
	if err != nil {
		return model.Graph{}, err
	}
	return LoadFromSource(src)
}

// LoadFromSource dispatches to the reader for the source's type.
func LoadFromSource(source DataSource) (model.Graph, error) {
	switch source.Type {
	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(source)
		if err != nil {
			return model.Graph{}, fmt.Errorf("open SQLite source %s: %w", source.Path, err)
		}
		defer reader.Close()
		return reader.LoadGraph()

	case SourceTypeJSON:
		return LoadJSONFile(source.Path)

	default:
		return model.Graph{}, fmt.Errorf("%w: type %q", ErrUnsupported, source.Type)
	}
}

// LoadJSONFile decodes a node-link document. The document may also be a full
// /chat response, in which case its graph_data is used.
func LoadJSONFile(path string) (model.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Graph{}, fmt.Errorf("read %s: %w", path, err)
	}
	defer metrics.Timer(metrics.JSONParsing)()

	var doc struct {
		model.Graph
		GraphData *model.Graph `json:"graph_data"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.Graph{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if doc.Graph.Empty() && doc.GraphData != nil {
		return *doc.GraphData, nil
	}
	return doc.Graph, nil
}
