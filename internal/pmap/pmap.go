// SPDX-License-Identifier: MIT

// Package pmap implements a partitioned persistent map: a large key→value
// association stored as many small files, partitioned by a short key derived
// from each primary key. See spec §4.2 ("PartitionedMap").
package pmap

import (
	"bufio"
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/zeramorphic/wikipedia/internal/sortedfile"
)

// Map associates values of type V to primary keys of type L. Every primary
// key is classified by Shorten into a short key (always a string, since every
// user of this type in this system derives either a decimal byte or a short
// alphabetic prefix — see spec §3). The short key partitions the map into
// many smaller sorted maps that can be locked, loaded, and serialised
// independently.
type Map[L cmp.Ordered, V any] struct {
	dir     string // data/<prefix>/
	prefix  string // data/<prefix>.json
	shorten func(L) string

	loaded int32 // atomic bool

	mu         sync.RWMutex
	partitions map[string]*partition[L, V]
}

type partition[L cmp.Ordered, V any] struct {
	mu      sync.RWMutex
	entries map[L]V
}

func newPartition[L cmp.Ordered, V any]() *partition[L, V] {
	return &partition[L, V]{entries: make(map[L]V)}
}

// New creates an empty partitioned map whose on-disk home is
// data/<prefix>/ with a manifest at data/<prefix>.json.
func New[L cmp.Ordered, V any](dataDir, prefix string, shorten func(L) string) *Map[L, V] {
	return &Map[L, V]{
		dir:        filepath.Join(dataDir, prefix),
		prefix:     filepath.Join(dataDir, prefix+".json"),
		shorten:    shorten,
		partitions: make(map[string]*partition[L, V]),
	}
}

// IsFullyLoaded reports whether every persisted entry is known to be in
// memory, making lookup misses definitive.
func (m *Map[L, V]) IsFullyLoaded() bool {
	return atomic.LoadInt32(&m.loaded) != 0
}

// MarkLoaded asserts that every persisted entry is now in memory.
func (m *Map[L, V]) MarkLoaded() {
	atomic.StoreInt32(&m.loaded, 1)
}

func (m *Map[L, V]) getOrCreatePartition(shortKey string) *partition[L, V] {
	m.mu.RLock()
	p, ok := m.partitions[shortKey]
	m.mu.RUnlock()
	if ok {
		return p
	}

	// Expensive path: upgrade to a write lock on the outer map. Another
	// goroutine may have created this partition in the meantime, so we must
	// recheck after acquiring the write lock (double-checked creation).
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.partitions[shortKey]; ok {
		return p
	}
	p = newPartition[L, V]()
	m.partitions[shortKey] = p
	return p
}

// Insert writes key→value into the map, creating its partition if necessary.
func (m *Map[L, V]) Insert(key L, value V) {
	shortKey := m.shorten(key)
	p := m.getOrCreatePartition(shortKey)
	p.mu.Lock()
	p.entries[key] = value
	p.mu.Unlock()
}

// MutateWithDefault applies f to the value stored under key, inserting the
// zero value first if key is absent. Partition-creation semantics match
// Insert.
func (m *Map[L, V]) MutateWithDefault(key L, f func(v *V)) {
	shortKey := m.shorten(key)
	p := m.getOrCreatePartition(shortKey)
	p.mu.Lock()
	v := p.entries[key]
	f(&v)
	p.entries[key] = v
	p.mu.Unlock()
}

// With looks up key and applies f to its value, returning f's result and
// true. On a miss, if the map is not fully loaded, With opens the relevant
// partition file on disk (if any), binary-searches it for key, and — on a
// hit — memoises the pair into memory before applying f. With never
// fabricates a value: a definitive miss returns the zero value and false.
func (m *Map[L, V]) With(key L, f func(v V) any) (any, bool, error) {
	shortKey := m.shorten(key)

	m.mu.RLock()
	p, ok := m.partitions[shortKey]
	m.mu.RUnlock()
	if ok {
		p.mu.RLock()
		v, found := p.entries[key]
		p.mu.RUnlock()
		if found {
			return f(v), true, nil
		}
	}

	if m.IsFullyLoaded() {
		return nil, false, nil
	}

	v, found, err := m.loadFromDisk(shortKey, key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return f(v), true, nil
}

// Get is the common case of With: copy out the stored value.
func (m *Map[L, V]) Get(key L) (V, bool, error) {
	var zero V
	result, found, err := m.With(key, func(v V) any { return v })
	if err != nil || !found {
		return zero, found, err
	}
	return result.(V), true, nil
}

func (m *Map[L, V]) partitionPath(shortKey string) string {
	return filepath.Join(m.dir, shortKey+".jsonl")
}

func (m *Map[L, V]) loadFromDisk(shortKey string, key L) (V, bool, error) {
	var zero V
	path := m.partitionPath(shortKey)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	defer f.Close()

	line, found, err := sortedfile.Search(f, key, func(line string) L {
		var pair [2]json.RawMessage
		if err := json.Unmarshal([]byte(line), &pair); err != nil {
			var zeroL L
			return zeroL
		}
		var k L
		_ = json.Unmarshal(pair[0], &k)
		return k
	})
	if err != nil || !found {
		return zero, false, err
	}

	var pair struct {
		K L
		V V
	}
	var raw [2]json.RawMessage
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return zero, false, fmt.Errorf("pmap: corrupt partition %s: %w", path, err)
	}
	if err := json.Unmarshal(raw[0], &pair.K); err != nil {
		return zero, false, fmt.Errorf("pmap: corrupt partition %s: %w", path, err)
	}
	if err := json.Unmarshal(raw[1], &pair.V); err != nil {
		return zero, false, fmt.Errorf("pmap: corrupt partition %s: %w", path, err)
	}

	p := m.getOrCreatePartition(shortKey)
	p.mu.Lock()
	p.entries[pair.K] = pair.V
	p.mu.Unlock()

	return pair.V, true, nil
}

// WithAll calls f(key, value) for every entry currently in memory, from a
// background goroutine. Requires IsFullyLoaded (it panics otherwise). The
// returned channel carries no values; it is closed once f has returned for
// every entry, so callers receive from it to wait for the walk to finish.
func (m *Map[L, V]) WithAll(f func(key L, value V)) <-chan struct{} {
	if !m.IsFullyLoaded() {
		panic("pmap: WithAll requires a fully loaded map")
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.mu.RLock()
		parts := make([]*partition[L, V], 0, len(m.partitions))
		for _, p := range m.partitions {
			parts = append(parts, p)
		}
		m.mu.RUnlock()

		for _, p := range parts {
			p.mu.RLock()
			for k, v := range p.entries {
				f(k, v)
			}
			p.mu.RUnlock()
		}
	}()
	return done
}

// Len returns the total number of entries currently held in memory.
func (m *Map[L, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, p := range m.partitions {
		p.mu.RLock()
		n += len(p.entries)
		p.mu.RUnlock()
	}
	return n
}

// Serialize requires IsFullyLoaded. It writes the manifest (a JSON array of
// short keys) and, in parallel, one JSON-lines file per partition with lines
// `[key, value]` in ascending key order.
func (m *Map[L, V]) Serialize() error {
	if !m.IsFullyLoaded() {
		return fmt.Errorf("pmap: map must be fully loaded before serializing")
	}
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return err
	}

	m.mu.RLock()
	shortKeys := make([]string, 0, len(m.partitions))
	parts := make(map[string]*partition[L, V], len(m.partitions))
	for k, p := range m.partitions {
		shortKeys = append(shortKeys, k)
		parts[k] = p
	}
	m.mu.RUnlock()
	sort.Strings(shortKeys)

	manifest, err := os.Create(m.prefix)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(manifest).Encode(shortKeys); err != nil {
		manifest.Close()
		return err
	}
	if err := manifest.Close(); err != nil {
		return err
	}

	var g errgroup.Group
	for _, shortKey := range shortKeys {
		shortKey := shortKey
		p := parts[shortKey]
		g.Go(func() error {
			return writePartition(m.partitionPath(shortKey), p)
		})
	}
	return g.Wait()
}

func writePartition[L cmp.Ordered, V any](path string, p *partition[L, V]) error {
	p.mu.RLock()
	keys := make([]L, 0, len(p.entries))
	for k := range p.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return cmp.Less(keys[i], keys[j]) })

	file, err := os.Create(path)
	if err != nil {
		p.mu.RUnlock()
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, k := range keys {
		if err := json.NewEncoder(w).Encode([2]any{k, p.entries[k]}); err != nil {
			p.mu.RUnlock()
			return err
		}
	}
	p.mu.RUnlock()
	return w.Flush()
}

// Deserialize reads the manifest, creating an empty partition for every
// listed short key. If full is true, every partition file is also read (in
// parallel) into memory, and the map is marked fully loaded. Deserialize
// returns true if a manifest existed on disk, false otherwise (a normal
// first-run miss).
func (m *Map[L, V]) Deserialize(full bool) (bool, error) {
	data, err := os.ReadFile(m.prefix)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var shortKeys []string
	if err := json.Unmarshal(data, &shortKeys); err != nil {
		return false, fmt.Errorf("pmap: corrupt manifest %s: %w", m.prefix, err)
	}

	m.mu.Lock()
	for _, k := range shortKeys {
		if _, ok := m.partitions[k]; !ok {
			m.partitions[k] = newPartition[L, V]()
		}
	}
	m.mu.Unlock()

	if !full {
		return true, nil
	}

	var g errgroup.Group
	for _, shortKey := range shortKeys {
		shortKey := shortKey
		g.Go(func() error {
			return m.readPartitionFull(shortKey)
		})
	}
	if err := g.Wait(); err != nil {
		return true, err
	}

	m.MarkLoaded()
	return true, nil
}

func (m *Map[L, V]) readPartitionFull(shortKey string) error {
	path := m.partitionPath(shortKey)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	m.mu.RLock()
	p := m.partitions[shortKey]
	m.mu.RUnlock()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	p.mu.Lock()
	defer p.mu.Unlock()
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var raw [2]json.RawMessage
		if err := json.Unmarshal(line, &raw); err != nil {
			return fmt.Errorf("pmap: corrupt partition %s: %w", path, err)
		}
		var k L
		var v V
		if err := json.Unmarshal(raw[0], &k); err != nil {
			return fmt.Errorf("pmap: corrupt partition %s: %w", path, err)
		}
		if err := json.Unmarshal(raw[1], &v); err != nil {
			return fmt.Errorf("pmap: corrupt partition %s: %w", path, err)
		}
		p.entries[k] = v
	}
	return scanner.Err()
}
