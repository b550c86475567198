// SPDX-License-Identifier: MIT

package linkgraph

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/dsnet/compress/bzip2"

	"github.com/zeramorphic/wikipedia/internal/dumpxml"
	"github.com/zeramorphic/wikipedia/internal/titlemap"
)

func bzCompress(t *testing.T, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: 9})
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte(data))
	w.Close()
	return buf.Bytes()
}

func page(id int, title, text string) string {
	return `<page><title>` + title + `</title><ns>0</ns><id>` + itoa(id) +
		`</id><revision><id>1</id><timestamp>2024-01-01T00:00:00Z</timestamp>` +
		`<model>wikitext</model><format>text/x-wiki</format><text>` + text + `</text></revision></page>`
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func buildShard(t *testing.T, dir string, pages []string, startID, endID int) dumpxml.Shard {
	t.Helper()
	var substream string
	for _, p := range pages {
		substream += p
	}
	articlesPath := filepath.Join(dir, "wiki-pages-articles-multistream1.xml-p1p3.bz2")
	if err := os.WriteFile(articlesPath, bzCompress(t, substream), 0644); err != nil {
		t.Fatal(err)
	}
	index := "0:1:Alpha\n0:2:Beta\n0:3:Gamma\n"
	indexPath := filepath.Join(dir, "wiki-pages-articles-multistream-index1.txt-p1p3.bz2")
	if err := os.WriteFile(indexPath, bzCompress(t, index), 0644); err != nil {
		t.Fatal(err)
	}
	return dumpxml.Shard{ArticlesPath: articlesPath, IndexPath: indexPath, StartID: uint32(startID), EndID: uint32(endID)}
}

func TestBuildOutgoingAndIncoming(t *testing.T) {
	dir := t.TempDir()
	shard := buildShard(t, dir, []string{
		page(1, "Alpha", "links to [[Beta]] and [[Gamma|the third]]"),
		page(2, "Beta", "links to [[Alpha]]"),
		page(3, "Gamma", "no links here"),
	}, 1, 3)

	titles := titlemap.New(dir)
	titles.Insert(1, "Alpha")
	titles.Insert(2, "Beta")
	titles.Insert(3, "Gamma")
	titles.MarkLoaded()

	outgoing, counts, err := BuildOutgoing(dir, []dumpxml.Shard{shard}, titles)
	if err != nil {
		t.Fatal(err)
	}
	if counts.Blue != 3 {
		t.Errorf("counts.Blue = %d, want 3", counts.Blue)
	}

	links, found, err := outgoing.Get(1)
	if err != nil {
		t.Fatal(err)
	}
	if !found || len(links) != 2 {
		t.Fatalf("outgoing[1] = %v, %v, want 2 links", links, found)
	}

	incoming := BuildIncoming(dir, outgoing)
	inA, found, err := incoming.Get(2) // Beta is linked from Alpha
	if err != nil {
		t.Fatal(err)
	}
	if !found || len(inA) != 1 || inA[0] != 1 {
		t.Errorf("incoming[2] = %v, %v, want [1]", inA, found)
	}
}

func TestAdjacencySymmetry(t *testing.T) {
	dir := t.TempDir()
	shard := buildShard(t, dir, []string{
		page(1, "Alpha", "[[Beta]]"),
		page(2, "Beta", "[[Alpha]]"),
		page(3, "Gamma", ""),
	}, 1, 3)

	titles := titlemap.New(dir)
	titles.Insert(1, "Alpha")
	titles.Insert(2, "Beta")
	titles.Insert(3, "Gamma")
	titles.MarkLoaded()

	outgoing, _, err := BuildOutgoing(dir, []dumpxml.Shard{shard}, titles)
	if err != nil {
		t.Fatal(err)
	}
	incoming := BuildIncoming(dir, outgoing)

	for _, x := range []uint32{1, 2, 3} {
		outs, _, err := outgoing.Get(x)
		if err != nil {
			t.Fatal(err)
		}
		for _, y := range outs {
			ins, found, err := incoming.Get(y)
			if err != nil {
				t.Fatal(err)
			}
			if !found || !containsUint32(ins, x) {
				t.Errorf("edge (%d -> %d) in outgoing but %d not in incoming[%d] = %v", x, y, x, y, ins)
			}
		}
	}
}

func containsUint32(xs []uint32, want uint32) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}
