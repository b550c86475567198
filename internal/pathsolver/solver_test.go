// SPDX-License-Identifier: MIT

package pathsolver

import (
	"testing"

	"github.com/zeramorphic/wikipedia/internal/pmap"
)

func buildGraph(t *testing.T, edges map[uint32][]uint32) (*pmap.Map[uint32, []uint32], *pmap.Map[uint32, []uint32]) {
	t.Helper()
	dir := t.TempDir()
	outgoing := pmap.New[uint32, []uint32](dir, "out", func(id uint32) string { return "x" })
	incoming := pmap.New[uint32, []uint32](dir, "in", func(id uint32) string { return "x" })
	for src, dsts := range edges {
		outgoing.Insert(src, dsts)
		for _, dst := range dsts {
			incoming.MutateWithDefault(dst, func(v *[]uint32) { *v = append(*v, src) })
		}
	}
	outgoing.MarkLoaded()
	incoming.MarkLoaded()
	return outgoing, incoming
}

func TestSolveDirectLink(t *testing.T) {
	// spec.md §8 scenario 5 family: a direct edge.
	outgoing, incoming := buildGraph(t, map[uint32][]uint32{1: {2}})
	path, found, err := Solve(1, 2, outgoing, incoming)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected a path")
	}
	want := []uint32{1, 2}
	if !equalPath(path, want) {
		t.Errorf("path = %v, want %v", path, want)
	}
}

func TestSolveMultiHop(t *testing.T) {
	outgoing, incoming := buildGraph(t, map[uint32][]uint32{
		1: {2, 3},
		2: {4},
		3: {4, 5},
		4: {6},
		5: {6},
	})
	path, found, err := Solve(1, 6, outgoing, incoming)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected a path")
	}
	if path[0] != 1 || path[len(path)-1] != 6 {
		t.Fatalf("path = %v, should start at 1 and end at 6", path)
	}
	if len(path) != 4 {
		t.Errorf("path = %v, want shortest path of degree 3 (4 nodes)", path)
	}
	for i := 0; i+1 < len(path); i++ {
		if !edgeExists(outgoing, path[i], path[i+1]) {
			t.Errorf("edge (%d -> %d) in reconstructed path is not in the graph", path[i], path[i+1])
		}
	}
}

func TestSolveNoPath(t *testing.T) {
	// spec.md §8 scenario 6 family: disconnected nodes.
	outgoing, incoming := buildGraph(t, map[uint32][]uint32{1: {2}, 5: {6}})
	_, found, err := Solve(1, 6, outgoing, incoming)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("expected no path")
	}
}

func TestSolveSameStartAndEnd(t *testing.T) {
	outgoing, incoming := buildGraph(t, map[uint32][]uint32{1: {2}})
	path, found, err := Solve(1, 1, outgoing, incoming)
	if err != nil {
		t.Fatal(err)
	}
	if !found || len(path) != 1 || path[0] != 1 {
		t.Errorf("path = %v, %v, want [1], true", path, found)
	}
}

func equalPath(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func edgeExists(outgoing *pmap.Map[uint32, []uint32], u, v uint32) bool {
	links, found, err := outgoing.Get(u)
	if err != nil || !found {
		return false
	}
	for _, l := range links {
		if l == v {
			return true
		}
	}
	return false
}
