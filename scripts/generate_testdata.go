//go:build ignore

// generate_testdata.go creates standard knowledge-graph sources for
// benchmarking layout, analysis and snapshot export.
// Usage: go run scripts/generate_testdata.go
//
// Creates, for each size, a JSON source and the same graph as SQLite:
//
//	testdata/graphs/small.json   (100 concepts)
//	testdata/graphs/medium.json  (500 concepts)
//	testdata/graphs/large.json   (2000 concepts)
//	testdata/graphs/huge.json    (5000 concepts)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/kgview/internal/datasource"
	"github.com/vanderheijden86/kgview/pkg/model"
	"github.com/vanderheijden86/kgview/pkg/testutil"
)

type datasetSpec struct {
	name string
	size int
	desc string
}

// Sizes straddle the analysis tiers so each tier has a fixture.
var datasets = []datasetSpec{
	{"small", 100, "100 concepts, ~4 relations each"},
	{"medium", 500, "500 concepts, ~3 relations each"},
	{"large", 2000, "2000 concepts, ~2 relations each"},
	{"huge", 5000, "5000 concepts, ~2 relations each"},
}

func main() {
	outputDir := filepath.Join("testdata", "graphs")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%s)...\n", ds.name, ds.desc)

		gen := testutil.New(testutil.GeneratorConfig{
			Seed:     int64(ds.size), // reproducible per size
			IDPrefix: "concept-",
			MaxVal:   20,
		})
		g := gen.Random(ds.size, density(ds.size))
		g = connect(g)

		data, err := json.MarshalIndent(g, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode %s: %v\n", ds.name, err)
			os.Exit(1)
		}
		jsonPath := filepath.Join(outputDir, ds.name+".json")
		if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", jsonPath, err)
			os.Exit(1)
		}

		dbPath := filepath.Join(outputDir, ds.name+".db")
		_ = os.Remove(dbPath)
		if err := datasource.WriteSQLite(dbPath, g); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", dbPath, err)
			os.Exit(1)
		}

		fmt.Printf("  Written %s (%d bytes) and %s (%d nodes, %d links)\n",
			jsonPath, len(data), dbPath, len(g.Nodes), len(g.Links))
	}

	fmt.Println("\nDone! Graph sources created in", outputDir)
}

// density keeps the average degree roughly constant as size grows.
func density(size int) float64 {
	switch {
	case size <= 100:
		return 0.04
	case size <= 500:
		return 0.006
	case size <= 2000:
		return 0.001
	default:
		return 0.0004
	}
}

// connect chains isolated concepts to their predecessor so the fixtures look
// like real answers, which rarely contain orphan nodes.
func connect(g model.Graph) model.Graph {
	linked := make(map[string]bool, len(g.Nodes))
	for _, l := range g.Links {
		linked[l.Source] = true
		linked[l.Target] = true
	}
	for i := 1; i < len(g.Nodes); i++ {
		if id := g.Nodes[i].ID; !linked[id] {
			g.Links = append(g.Links, model.Link{Source: g.Nodes[i-1].ID, Target: id})
			linked[id] = true
		}
	}
	return g
}
