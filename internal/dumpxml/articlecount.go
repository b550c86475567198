// SPDX-License-Identifier: MIT

package dumpxml

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
)

// ArticleCount is the per-shard article totals gathered by CountArticles. It
// implements cache.BytesSerde with a small packed binary encoding: a varint
// count of shards, then for each shard a varint-length-prefixed path and a
// varint count.
type ArticleCount struct {
	PerShard map[string]uint64
}

func NewArticleCount() *ArticleCount {
	return &ArticleCount{PerShard: make(map[string]uint64)}
}

func (a *ArticleCount) Total() uint64 {
	var total uint64
	for _, n := range a.PerShard {
		total += n
	}
	return total
}

func (a *ArticleCount) MarshalBinary(w io.Writer) error {
	bw := bufio.NewWriter(w)
	var buf [binary.MaxVarintLen64]byte

	n := binary.PutUvarint(buf[:], uint64(len(a.PerShard)))
	if _, err := bw.Write(buf[:n]); err != nil {
		return err
	}
	for path, count := range a.PerShard {
		n := binary.PutUvarint(buf[:], uint64(len(path)))
		if _, err := bw.Write(buf[:n]); err != nil {
			return err
		}
		if _, err := bw.WriteString(path); err != nil {
			return err
		}
		n = binary.PutUvarint(buf[:], count)
		if _, err := bw.Write(buf[:n]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func (a *ArticleCount) UnmarshalBinaryFrom(r io.Reader) error {
	br := bufio.NewReader(r)
	numShards, err := binary.ReadUvarint(br)
	if err != nil {
		return err
	}
	a.PerShard = make(map[string]uint64, numShards)
	for i := uint64(0); i < numShards; i++ {
		pathLen, err := binary.ReadUvarint(br)
		if err != nil {
			return err
		}
		pathBytes := make([]byte, pathLen)
		if _, err := io.ReadFull(br, pathBytes); err != nil {
			return err
		}
		count, err := binary.ReadUvarint(br)
		if err != nil {
			return err
		}
		a.PerShard[string(pathBytes)] = count
	}
	return nil
}

// CountArticles counts articles per shard by scanning each shard's index
// file without decompressing any article content.
func CountArticles(shards []Shard) (*ArticleCount, error) {
	result := NewArticleCount()
	for _, shard := range shards {
		count, err := countIndexLines(shard.IndexPath)
		if err != nil {
			return nil, err
		}
		result.PerShard[shard.IndexPath] = count
	}
	return result, nil
}

func countIndexLines(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r, err := indexReaderFor(path, f)
	if err != nil {
		return 0, err
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	var count uint64
	for scanner.Scan() {
		if scanner.Text() == "" {
			continue
		}
		count++
	}
	return count, scanner.Err()
}
