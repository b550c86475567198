// SPDX-License-Identifier: MIT

// Package cache implements the memoising on-disk cache: run a producer once,
// persist its result, and serve that result on every later run without
// invoking the producer again. See spec §4.3 ("Memoise").
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/zeramorphic/wikipedia/internal/metrics"
)

// ErrCorruptCache is returned when a cached file exists but cannot be
// decoded.
var ErrCorruptCache = errors.New("cache: corrupt cache entry")

// Memoise returns the cached value stored at data/<key>.json[.gz], or calls
// produce and persists its result if no cache entry exists yet. label is used
// only to prefix the error returned for a corrupt cache entry. When gz is
// true, the cache file is gzip-framed.
func Memoise[T any](dataDir, key, label string, gz bool, produce func() (T, error)) (T, error) {
	var zero T
	path := jsonCachePath(dataDir, key, gz)

	if f, err := os.Open(path); err == nil {
		defer f.Close()
		v, err := decodeJSON[T](f, gz)
		if err != nil {
			return zero, fmt.Errorf("%s: %w: %v", label, ErrCorruptCache, err)
		}
		metrics.CacheHits.Inc()
		return v, nil
	} else if !os.IsNotExist(err) {
		return zero, err
	}

	metrics.CacheMisses.Inc()
	result, err := produce()
	if err != nil {
		return zero, err
	}
	if err := writeJSON(path, gz, result); err != nil {
		return zero, err
	}
	return result, nil
}

func jsonCachePath(dataDir, key string, gz bool) string {
	suffix := ".json"
	if gz {
		suffix = ".json.gz"
	}
	return filepath.Join(dataDir, key+suffix)
}

func decodeJSON[T any](r io.Reader, gz bool) (T, error) {
	var zero T
	if gz {
		gr, err := gzip.NewReader(r)
		if err != nil {
			return zero, err
		}
		defer gr.Close()
		r = gr
	}
	var v T
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return zero, err
	}
	return v, nil
}

// writeJSON writes value to a temp file beside path and renames it into
// place atomically, so a crash mid-write never leaves a corrupt cache entry
// that a later run would mistake for valid.
func writeJSON(path string, gz bool, value any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	defer tmpFile.Close()

	var w io.Writer = tmpFile
	var gw *gzip.Writer
	if gz {
		gw = gzip.NewWriter(tmpFile)
		w = gw
	}
	if err := json.NewEncoder(w).Encode(value); err != nil {
		return err
	}
	if gw != nil {
		if err := gw.Close(); err != nil {
			return err
		}
	}
	if err := tmpFile.Sync(); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
