// SPDX-License-Identifier: MIT

// Package pathsolver implements the bidirectional breadth-first search for a
// shortest directed path through the link graph. See spec §4.8.
package pathsolver

import (
	"github.com/zeramorphic/wikipedia/internal/metrics"
	"github.com/zeramorphic/wikipedia/internal/pmap"
)

// Solve finds a shortest directed path from start to end over the link
// graph described by outgoing/incoming, or reports that none exists. The
// returned path begins with start and ends with end; its length minus one
// is the path's degree.
func Solve(start, end uint32, outgoing, incoming *pmap.Map[uint32, []uint32]) ([]uint32, bool, error) {
	// frontier[0] is the sentinel-seeded first rank; each later rank maps an
	// id newly reached at that ply to its predecessor at the previous ply.
	startFrontiers := []map[uint32]uint32{{start: 0}}
	endFrontiers := []map[uint32]uint32{{end: 0}}

	for {
		latestStart := startFrontiers[len(startFrontiers)-1]
		latestEnd := endFrontiers[len(endFrontiers)-1]

		if len(latestStart) == 0 || len(latestEnd) == 0 {
			metrics.PathsSolved.WithLabelValues("false").Inc()
			return nil, false, nil
		}

		if path, ok := completePath(startFrontiers, endFrontiers); ok {
			metrics.PathsSolved.WithLabelValues("true").Inc()
			return path, true, nil
		}

		if len(latestStart) <= len(latestEnd) {
			next, err := expand(latestStart, startFrontiers, outgoing)
			if err != nil {
				return nil, false, err
			}
			metrics.FrontierSize.Set(float64(len(next)))
			startFrontiers = append(startFrontiers, next)
		} else {
			next, err := expand(latestEnd, endFrontiers, incoming)
			if err != nil {
				return nil, false, err
			}
			metrics.FrontierSize.Set(float64(len(next)))
			endFrontiers = append(endFrontiers, next)
		}
	}
}

// expand builds the next frontier by following adj from every id in latest,
// skipping any id already present in an earlier frontier (a guarded
// insert: only the first predecessor found for a given id is kept).
func expand(latest map[uint32]uint32, allFrontiers []map[uint32]uint32, adj *pmap.Map[uint32, []uint32]) (map[uint32]uint32, error) {
	next := make(map[uint32]uint32)
	for id := range latest {
		links, found, err := adj.Get(id)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		for _, link := range links {
			if alreadySeen(allFrontiers, link) {
				continue
			}
			if _, ok := next[link]; ok {
				continue
			}
			next[link] = id
		}
	}
	return next, nil
}

func alreadySeen(frontiers []map[uint32]uint32, id uint32) bool {
	for _, f := range frontiers {
		if _, ok := f[id]; ok {
			return true
		}
	}
	return false
}

// completePath checks whether the latest start and end frontiers share a
// key, and if so reconstructs the full path through it.
func completePath(startFrontiers, endFrontiers []map[uint32]uint32) ([]uint32, bool) {
	latestStart := startFrontiers[len(startFrontiers)-1]
	latestEnd := endFrontiers[len(endFrontiers)-1]

	var connection uint32
	found := false
	for id := range latestStart {
		if _, ok := latestEnd[id]; ok {
			connection = id
			found = true
			break
		}
	}
	if !found {
		return nil, false
	}

	var path []uint32
	towardsStart := connection
	rank := len(startFrontiers) - 1
	for towardsStart != 0 {
		path = append([]uint32{towardsStart}, path...)
		towardsStart = startFrontiers[rank][towardsStart]
		rank--
	}

	towardsEnd := connection
	rank = len(endFrontiers) - 1
	for rank != 0 {
		towardsEnd = endFrontiers[rank][towardsEnd]
		path = append(path, towardsEnd)
		rank--
	}

	return path, true
}
