// SPDX-License-Identifier: MIT

package cache

import (
	"io"
	"os"
	"path/filepath"

	"github.com/andybalholm/brotli"

	"github.com/zeramorphic/wikipedia/internal/metrics"
)

// BytesSerde is implemented by types with a bespoke packed-binary encoding,
// for cache entries where generic JSON would be wastefully large (e.g. a
// dense per-article count table).
type BytesSerde interface {
	MarshalBinary(w io.Writer) error
	UnmarshalBinaryFrom(r io.Reader) error
}

// MemoiseBytes is Memoise's counterpart for BytesSerde-implementing values,
// framed with brotli rather than gzip since its payloads are larger and
// produced once per dump.
func MemoiseBytes[T BytesSerde](dataDir, key, label string, newT func() T, produce func() (T, error)) (T, error) {
	var zero T
	path := filepath.Join(dataDir, key+".bin.br")

	if f, err := os.Open(path); err == nil {
		defer f.Close()
		br := brotli.NewReader(f)
		v := newT()
		if err := v.UnmarshalBinaryFrom(br); err != nil {
			return zero, err
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
	if err := writeBytes(path, result); err != nil {
		return zero, err
	}
	return result, nil
}

func writeBytes(path string, value BytesSerde) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	defer tmpFile.Close()

	bw := brotli.NewWriterLevel(tmpFile, 6)
	if err := value.MarshalBinary(bw); err != nil {
		return err
	}
	if err := bw.Close(); err != nil {
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
