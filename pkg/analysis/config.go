package analysis

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment overrides, mostly for very large local sources.
const (
	// EnvSkipCentrality disables PageRank and betweenness entirely.
	EnvSkipCentrality = "KGV_SKIP_CENTRALITY"
	// EnvCentralityTimeoutSeconds replaces every metric timeout.
	EnvCentralityTimeoutSeconds = "KGV_CENTRALITY_TIMEOUT_S"
)

// Config controls which metrics are computed and how long each may run.
type Config struct {
	// PageRank over the undirected relation graph.
	ComputePageRank    bool
	PageRankTimeout    time.Duration
	PageRankSkipReason string

	// Betweenness centrality (expensive: O(V*E)).
	ComputeBetweenness    bool
	BetweennessTimeout    time.Duration
	BetweennessSkipReason string
}

// DefaultConfig enables every metric with standard timeouts.
func DefaultConfig() Config {
	return ApplyEnvOverrides(Config{
		ComputePageRank:    true,
		PageRankTimeout:    500 * time.Millisecond,
		ComputeBetweenness: true,
		BetweennessTimeout: 500 * time.Millisecond,
	})
}

// ConfigForSize picks a configuration for a graph of the given size.
//
// Size tiers:
//   - Small (<100 nodes): everything, generous timeouts
//   - Medium (100-500 nodes): everything, standard timeouts
//   - Large (500-2000 nodes): betweenness only for sparse graphs
//   - XL (>2000 nodes): PageRank only
func ConfigForSize(nodeCount, linkCount int) Config {
	density := Density(nodeCount, linkCount)

	var cfg Config
	switch {
	case nodeCount < 100:
		cfg = Config{
			ComputePageRank:    true,
			PageRankTimeout:    2 * time.Second,
			ComputeBetweenness: true,
			BetweennessTimeout: 2 * time.Second,
		}

	case nodeCount < 500:
		cfg = Config{
			ComputePageRank:    true,
			PageRankTimeout:    500 * time.Millisecond,
			ComputeBetweenness: true,
			BetweennessTimeout: 500 * time.Millisecond,
		}

	case nodeCount < 2000:
		cfg = Config{
			ComputePageRank: true,
			PageRankTimeout: 300 * time.Millisecond,
		}
		if density < 0.01 {
			cfg.ComputeBetweenness = true
			cfg.BetweennessTimeout = 500 * time.Millisecond
		} else {
			cfg.BetweennessSkipReason = "graph too dense (density > 0.01)"
		}

	default:
		cfg = Config{
			ComputePageRank:       true,
			PageRankTimeout:       200 * time.Millisecond,
			BetweennessSkipReason: "graph too large (>2000 nodes)",
		}
	}
	return ApplyEnvOverrides(cfg)
}

// ApplyEnvOverrides applies KGV_SKIP_CENTRALITY and KGV_CENTRALITY_TIMEOUT_S.
func ApplyEnvOverrides(cfg Config) Config {
	if envBool(EnvSkipCentrality) {
		cfg.ComputePageRank = false
		cfg.PageRankSkipReason = EnvSkipCentrality + " set"
		cfg.ComputeBetweenness = false
		cfg.BetweennessSkipReason = EnvSkipCentrality + " set"
	}

	if seconds, ok := envPositiveInt(EnvCentralityTimeoutSeconds); ok {
		timeout := time.Duration(seconds) * time.Second
		if cfg.ComputePageRank {
			cfg.PageRankTimeout = timeout
		}
		if cfg.ComputeBetweenness {
			cfg.BetweennessTimeout = timeout
		}
	}
	return cfg
}

// Density is links over possible undirected pairs.
func Density(nodeCount, linkCount int) float64 {
	if nodeCount < 2 {
		return 0
	}
	return float64(linkCount) / float64(nodeCount*(nodeCount-1)/2)
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func envPositiveInt(name string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
