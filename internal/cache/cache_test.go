// SPDX-License-Identifier: MIT

package cache

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"testing"
)

func TestMemoiseMissThenHit(t *testing.T) {
	dir := t.TempDir()
	calls := 0
	produce := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := Memoise(dir, "answer", "answer", false, produce)
	if err != nil {
		t.Fatal(err)
	}
	if v != 42 || calls != 1 {
		t.Fatalf("first call: v=%d calls=%d, want 42, 1", v, calls)
	}

	v, err = Memoise(dir, "answer", "answer", false, produce)
	if err != nil {
		t.Fatal(err)
	}
	if v != 42 || calls != 1 {
		t.Fatalf("second call: v=%d calls=%d, want 42, 1 (producer should not re-run)", v, calls)
	}
}

func TestMemoiseGzip(t *testing.T) {
	dir := t.TempDir()
	type payload struct {
		Names []string
	}
	want := payload{Names: []string{"a", "b", "c"}}

	v, err := Memoise(dir, "names", "names", true, func() (payload, error) { return want, nil })
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Names) != 3 {
		t.Fatalf("v = %+v, want %+v", v, want)
	}

	if _, err := os.Stat(dir + "/names.json.gz"); err != nil {
		t.Fatalf("expected gzip cache file: %v", err)
	}

	v2, err := Memoise(dir, "names", "names", true, func() (payload, error) {
		t.Fatal("producer should not be called on cache hit")
		return payload{}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(v2.Names) != 3 || v2.Names[1] != "b" {
		t.Errorf("cached v2 = %+v, want %+v", v2, want)
	}
}

func TestMemoiseCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(dir+"/broken.json", []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Memoise(dir, "broken", "broken", false, func() (int, error) { return 1, nil })
	if !errors.Is(err, ErrCorruptCache) {
		t.Errorf("err = %v, want ErrCorruptCache", err)
	}
}

type fixedCounts []uint32

func (c fixedCounts) MarshalBinary(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, []uint32(c))
}

func (c *fixedCounts) UnmarshalBinaryFrom(r io.Reader) error {
	buf := make([]uint32, len(*c))
	if err := binary.Read(r, binary.LittleEndian, buf); err != nil && err != io.EOF {
		return err
	}
	*c = buf
	return nil
}

func TestMemoiseBytesMissThenHit(t *testing.T) {
	dir := t.TempDir()
	calls := 0
	produce := func() (*fixedCounts, error) {
		calls++
		c := fixedCounts{1, 2, 3}
		return &c, nil
	}
	newT := func() *fixedCounts {
		c := make(fixedCounts, 3)
		return &c
	}

	v, err := MemoiseBytes(dir, "counts", "counts", newT, produce)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 || len(*v) != 3 || (*v)[2] != 3 {
		t.Fatalf("first call: v=%v calls=%d", *v, calls)
	}

	v2, err := MemoiseBytes(dir, "counts", "counts", newT, func() (*fixedCounts, error) {
		t.Fatal("producer should not be called on cache hit")
		return nil, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(*v2) != 3 || (*v2)[0] != 1 || (*v2)[1] != 2 || (*v2)[2] != 3 {
		t.Errorf("cached v2 = %v, want [1 2 3]", *v2)
	}
}
