// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus counters and gauges for the dump
// pipeline, matching the teacher's own use of client_golang in its webserver
// commands. See SPEC_FULL §6 ("Metrics").
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wikigraph"

var (
	// PagesStreamed counts <page> elements emitted by the multi-stream
	// reader, across every shard.
	PagesStreamed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pages_streamed_total",
		Help:      "Number of dump pages streamed from multistream shards.",
	})

	// BlueLinks counts wikilinks that resolved to a known article id while
	// building the outgoing link map.
	BlueLinks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blue_links_total",
		Help:      "Number of wikilinks that resolved to a known article.",
	})

	// RedLinks counts wikilinks that did not resolve to a known article id.
	RedLinks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "red_links_total",
		Help:      "Number of wikilinks that did not resolve to a known article.",
	})

	// CacheHits counts internal/cache.Memoise/MemoiseBytes calls that found
	// an existing, valid cache entry on disk.
	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_hits_total",
		Help:      "Number of memoising-cache lookups that hit an existing entry.",
	})

	// CacheMisses counts internal/cache.Memoise/MemoiseBytes calls that had
	// to run their producer function.
	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_misses_total",
		Help:      "Number of memoising-cache lookups that missed and recomputed.",
	})

	// PathsSolved counts completed internal/pathsolver.Solve calls, labeled
	// by whether a path was found.
	PathsSolved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "paths_solved_total",
		Help:      "Number of shortest-path searches completed.",
	}, []string{"found"})

	// FrontierSize reports the size of the most recently expanded BFS
	// frontier, observed by the long-paths sampler pool.
	FrontierSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "bfs_frontier_size",
		Help:      "Size of the most recently expanded bidirectional-BFS frontier.",
	})
)

func init() {
	prometheus.MustRegister(PagesStreamed, BlueLinks, RedLinks, CacheHits, CacheMisses, PathsSolved, FrontierSize)
}

// Handler returns the promhttp handler for a "/metrics" endpoint, used by
// the long-running long-paths command.
func Handler() http.Handler {
	return promhttp.Handler()
}
