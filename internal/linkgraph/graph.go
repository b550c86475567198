// SPDX-License-Identifier: MIT

package linkgraph

import (
	"sort"
	"strconv"
	"sync/atomic"

	"github.com/zeramorphic/wikipedia/internal/dumpxml"
	"github.com/zeramorphic/wikipedia/internal/metrics"
	"github.com/zeramorphic/wikipedia/internal/pmap"
	"github.com/zeramorphic/wikipedia/internal/titlemap"
)

// Graph pairs the outgoing and incoming adjacency maps. Both are keyed by
// ArticleId with short-key = low 8 bits of id.
type Graph struct {
	Outgoing *pmap.Map[uint32, []uint32]
	Incoming *pmap.Map[uint32, []uint32]
}

func idShortKey(id uint32) string {
	return strconv.Itoa(int(id & 0xff))
}

// LinkCounts reports how many link targets resolved against the TitleMap
// ("blue") versus how many did not ("red") while building the outgoing map.
type LinkCounts struct {
	Blue int
	Red  int
}

// BuildOutgoing streams every page in parallel, extracts its wikilinks, and
// records the sorted unique set of resolvable target ids. A redirect page
// contributes no outgoing links of its own.
func BuildOutgoing(dataDir string, shards []dumpxml.Shard, titles *titlemap.TitleMap) (*pmap.Map[uint32, []uint32], LinkCounts, error) {
	outgoing := pmap.New[uint32, []uint32](dataDir, "outgoing_links", idShortKey)

	var blue, red int64
	out, errc := dumpxml.PageStream(shards, 0, 64, func(p dumpxml.PageRecord) struct {
		ID    uint32
		Links []uint32
	} {
		if p.HasRedirect {
			return struct {
				ID    uint32
				Links []uint32
			}{p.ID, nil}
		}

		seen := make(map[uint32]bool)
		var ids []uint32
		for _, link := range FindLinks(p.Revision.Text) {
			root := link.TargetRoot()
			ns, hasNamespace, remainder := SplitNamespace(root)
			if hasNamespace && ns != "Category" && ns != "Portal" {
				continue
			}
			if IsInterwikiLink(remainder) {
				continue
			}

			id, found, err := titles.GetID(root)
			if err != nil || !found {
				atomic.AddInt64(&red, 1)
				metrics.RedLinks.Inc()
				continue
			}
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		atomic.AddInt64(&blue, int64(len(ids)))
		metrics.BlueLinks.Add(float64(len(ids)))
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		return struct {
			ID    uint32
			Links []uint32
		}{p.ID, ids}
	})

	for rec := range out {
		outgoing.Insert(rec.ID, rec.Links)
	}
	if err := <-errc; err != nil {
		return nil, LinkCounts{}, err
	}

	outgoing.MarkLoaded()
	return outgoing, LinkCounts{Blue: int(blue), Red: int(red)}, nil
}

// BuildIncoming requires a fully loaded outgoing map and walks every
// (src, outs) pair, appending src to incoming[dst] for each dst in outs.
func BuildIncoming(dataDir string, outgoing *pmap.Map[uint32, []uint32]) *pmap.Map[uint32, []uint32] {
	incoming := pmap.New[uint32, []uint32](dataDir, "incoming_links", idShortKey)

	<-outgoing.WithAll(func(src uint32, outs []uint32) {
		for _, dst := range outs {
			incoming.MutateWithDefault(dst, func(list *[]uint32) {
				*list = append(*list, src)
			})
		}
	})

	incoming.MarkLoaded()
	return incoming
}
