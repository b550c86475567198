// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strconv"

	"github.com/zeramorphic/wikipedia/internal/dumpxml"
	"github.com/zeramorphic/wikipedia/internal/linkgraph"
	"github.com/zeramorphic/wikipedia/internal/pmap"
	"github.com/zeramorphic/wikipedia/internal/titlemap"
)

// linkShortKey matches internal/linkgraph's own short-key rule (low 8 bits
// of the article id, in decimal) so that on-demand disk lookups for
// partially loaded link maps land in the right partition file.
func linkShortKey(id uint32) string {
	return strconv.Itoa(int(id & 0xff))
}

// loadTitleMap deserializes the title map from dataDir if present, otherwise
// builds it from the dump shards under dumpsDir and persists the result.
func loadTitleMap(dataDir, dumpsDir string, full bool) (*titlemap.TitleMap, error) {
	tm := titlemap.New(dataDir)
	existed, err := tm.Deserialize(full)
	if err != nil {
		return nil, fmt.Errorf("loading title map: %w", err)
	}
	if existed {
		return tm, nil
	}

	logger.Printf("building title map from %s", dumpsDir)
	shards, err := dumpxml.DiscoverShards(dumpsDir)
	if err != nil {
		return nil, fmt.Errorf("discovering shards: %w", err)
	}
	tm, err = titlemap.Build(dataDir, shards)
	if err != nil {
		return nil, fmt.Errorf("building title map: %w", err)
	}
	if err := tm.Serialize(); err != nil {
		return nil, fmt.Errorf("serializing title map: %w", err)
	}
	return tm, nil
}

// loadOutgoing deserializes the outgoing link map from dataDir if present,
// otherwise builds it (requiring a fully loaded title map) and persists it.
func loadOutgoing(dataDir, dumpsDir string, titles *titlemap.TitleMap, full bool) (*pmap.Map[uint32, []uint32], error) {
	probe := pmap.New[uint32, []uint32](dataDir, "outgoing_links", linkShortKey)
	existed, err := probe.Deserialize(full)
	if err != nil {
		return nil, fmt.Errorf("loading outgoing links: %w", err)
	}
	if existed {
		return probe, nil
	}

	logger.Printf("building outgoing link map from %s", dumpsDir)
	shards, err := dumpxml.DiscoverShards(dumpsDir)
	if err != nil {
		return nil, fmt.Errorf("discovering shards: %w", err)
	}
	outgoing, counts, err := linkgraph.BuildOutgoing(dataDir, shards, titles)
	if err != nil {
		return nil, fmt.Errorf("building outgoing links: %w", err)
	}
	logger.Printf("outgoing links: %d blue, %d red", counts.Blue, counts.Red)
	if err := outgoing.Serialize(); err != nil {
		return nil, fmt.Errorf("serializing outgoing links: %w", err)
	}
	return outgoing, nil
}

// loadIncoming deserializes the incoming link map from dataDir if present,
// otherwise derives it from a fully loaded outgoing map and persists it.
func loadIncoming(dataDir string, outgoing *pmap.Map[uint32, []uint32], full bool) (*pmap.Map[uint32, []uint32], error) {
	probe := pmap.New[uint32, []uint32](dataDir, "incoming_links", linkShortKey)
	existed, err := probe.Deserialize(full)
	if err != nil {
		return nil, fmt.Errorf("loading incoming links: %w", err)
	}
	if existed {
		return probe, nil
	}

	logger.Printf("building incoming link map")
	incoming := linkgraph.BuildIncoming(dataDir, outgoing)
	if err := incoming.Serialize(); err != nil {
		return nil, fmt.Errorf("serializing incoming links: %w", err)
	}
	return incoming, nil
}
