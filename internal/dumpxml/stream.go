// SPDX-License-Identifier: MIT

package dumpxml

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/dsnet/compress/bzip2"
	"golang.org/x/sync/errgroup"

	"github.com/zeramorphic/wikipedia/internal/metrics"
)

// ErrNotFound is returned by PageInformation when the requested article id
// falls outside every shard's declared range.
var ErrNotFound = errors.New("dumpxml: article id not found in any shard")

// ErrParse wraps an error encountered while tokenising the dump's XML.
var ErrParse = errors.New("dumpxml: malformed page XML")

// Shard names a pair of dump files: the compressed article stream and its
// sidecar index, together with the inclusive article-id range the filename
// declares (e.g. "...-multistream1.xml-p1p41242.bz2").
type Shard struct {
	ArticlesPath string
	IndexPath    string
	StartID      uint32
	EndID        uint32
}

var shardRangeRE = regexp.MustCompile(`p(\d+)p(\d+)`)

// DiscoverShards pairs up every "...multistreamN.xml-pApB.bz2" file in dir
// with its "...multistream-indexN.txt-pApB.bz2" sibling and parses the declared
// [StartID, EndID] range from the shared "pApB" filename suffix.
func DiscoverShards(dir string) ([]Shard, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var shards []Shard
	for _, entry := range entries {
		name := entry.Name()
		if !strings.Contains(name, "multistream") || strings.Contains(name, "index") || !strings.HasSuffix(name, ".bz2") {
			continue
		}
		indexName := strings.Replace(name, "multistream", "multistream-index", 1)
		indexName = strings.Replace(indexName, ".xml", ".txt", 1)

		m := shardRangeRE.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		start, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			return nil, err
		}
		end, err := strconv.ParseUint(m[2], 10, 32)
		if err != nil {
			return nil, err
		}
		shards = append(shards, Shard{
			ArticlesPath: dir + "/" + name,
			IndexPath:    dir + "/" + indexName,
			StartID:      uint32(start),
			EndID:        uint32(end),
		})
	}
	return shards, nil
}

// PageStream streams information(page) for every page across every shard,
// stopping once cutoff pages have been emitted (cutoff == 0 means no limit).
// capacity bounds the output channel, providing backpressure. Errors abort
// the whole stream; the channel is closed in all cases.
func PageStream[T any](shards []Shard, cutoff uint64, capacity int, information func(PageRecord) T) (<-chan T, <-chan error) {
	out := make(chan T, capacity)
	errc := make(chan error, 1)

	var g errgroup.Group
	var mu sync.Mutex
	var emitted uint64
	stopped := false

	shouldStop := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return stopped
	}
	recordEmit := func() bool {
		mu.Lock()
		defer mu.Unlock()
		emitted++
		if cutoff != 0 && emitted >= cutoff {
			stopped = true
		}
		return stopped
	}

	for _, shard := range shards {
		shard := shard
		g.Go(func() error {
			err := streamShard(shard, information, out, shouldStop, recordEmit)
			if err != nil {
				mu.Lock()
				stopped = true
				mu.Unlock()
			}
			return err
		})
	}

	go func() {
		errc <- g.Wait()
		close(out)
		close(errc)
	}()

	return out, errc
}

func streamShard[T any](shard Shard, information func(PageRecord) T, out chan<- T, shouldStop func() bool, recordEmit func() bool) error {
	articlesFile, err := os.Open(shard.ArticlesPath)
	if err != nil {
		return err
	}
	defer articlesFile.Close()

	indexFile, err := os.Open(shard.IndexPath)
	if err != nil {
		return err
	}
	defer indexFile.Close()

	indexReader, err := indexReaderFor(shard.IndexPath, indexFile)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(indexReader)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var latestOffset uint64
	first := true
	for scanner.Scan() {
		if shouldStop() {
			return nil
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		offset, _, _, err := parseIndexLine(line)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrParse, err)
		}
		if first || offset > latestOffset {
			first = false
			latestOffset = offset
			pages, err := readSubstream(articlesFile, int64(offset))
			if err != nil {
				return err
			}
			if err := emitPages(pages, information, out, shouldStop, recordEmit); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}

func emitPages[T any](buf string, information func(PageRecord) T, out chan<- T, shouldStop func() bool, recordEmit func() bool) error {
	input := strings.TrimLeft(buf, " \t\r\n")
	for len(input) > 0 {
		if shouldStop() {
			return nil
		}
		elem, rest, err := ParseElement(input)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrParse, err)
		}
		input = strings.TrimLeft(rest, " \t\r\n")

		page, err := parsePage(elem)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrParse, err)
		}
		out <- information(page)
		metrics.PagesStreamed.Inc()
		if recordEmit() {
			return nil
		}
	}
	return nil
}

// parseIndexLine parses "offset:id:title".
func parseIndexLine(line string) (offset uint64, id uint32, title string, err error) {
	parts := strings.SplitN(line, ":", 3)
	if len(parts) != 3 {
		return 0, 0, "", fmt.Errorf("malformed index line %q", line)
	}
	o, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, 0, "", err
	}
	i, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, "", err
	}
	return o, uint32(i), parts[2], nil
}

func indexReaderFor(path string, f *os.File) (io.Reader, error) {
	if strings.HasSuffix(path, ".bz2") {
		return bzip2.NewReader(f, &bzip2.ReaderConfig{})
	}
	return f, nil
}

func readSubstream(articlesFile *os.File, offset int64) (string, error) {
	if _, err := articlesFile.Seek(offset, io.SeekStart); err != nil {
		return "", err
	}
	decoder, err := bzip2.NewReader(articlesFile, &bzip2.ReaderConfig{})
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(decoder)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// PageInformation locates the one shard whose [StartID, EndID] range covers
// id, scans that shard's index for the matching article, decompresses that
// one sub-stream, and applies information to the matching page. It returns
// ErrNotFound if id is outside every shard's range, or if the id is within a
// shard's range but not actually listed in its index.
func PageInformation[T any](shards []Shard, id uint32, information func(PageRecord) T) (T, error) {
	var zero T
	var shard Shard
	found := false
	for _, s := range shards {
		if id >= s.StartID && id <= s.EndID {
			shard = s
			found = true
			break
		}
	}
	if !found {
		return zero, ErrNotFound
	}

	articlesFile, err := os.Open(shard.ArticlesPath)
	if err != nil {
		return zero, err
	}
	defer articlesFile.Close()

	indexFile, err := os.Open(shard.IndexPath)
	if err != nil {
		return zero, err
	}
	defer indexFile.Close()

	indexReader, err := indexReaderFor(shard.IndexPath, indexFile)
	if err != nil {
		return zero, err
	}

	scanner := bufio.NewScanner(indexReader)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var offset uint64
	matched := false
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		o, articleID, _, err := parseIndexLine(line)
		if err != nil {
			return zero, fmt.Errorf("%w: %v", ErrParse, err)
		}
		if articleID == id {
			offset = o
			matched = true
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return zero, err
	}
	if !matched {
		return zero, ErrNotFound
	}

	pages, err := readSubstream(articlesFile, int64(offset))
	if err != nil {
		return zero, err
	}

	input := strings.TrimLeft(pages, " \t\r\n")
	for len(input) > 0 {
		elem, rest, err := ParseElement(input)
		if err != nil {
			return zero, fmt.Errorf("%w: %v", ErrParse, err)
		}
		input = strings.TrimLeft(rest, " \t\r\n")

		page, err := parsePage(elem)
		if err != nil {
			return zero, fmt.Errorf("%w: %v", ErrParse, err)
		}
		if page.ID == id {
			return information(page), nil
		}
	}
	return zero, ErrNotFound
}
