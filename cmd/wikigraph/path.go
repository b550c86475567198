// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/zeramorphic/wikipedia/internal/pathsolver"
	"github.com/zeramorphic/wikipedia/internal/title"
	"github.com/zeramorphic/wikipedia/internal/titlemap"
)

func runPath(dumpsDir, dataDir, start, end string) error {
	titles, err := loadTitleMap(dataDir, dumpsDir, false)
	if err != nil {
		return err
	}
	outgoing, err := loadOutgoing(dataDir, dumpsDir, titles, false)
	if err != nil {
		return err
	}
	incoming, err := loadIncoming(dataDir, outgoing, false)
	if err != nil {
		return err
	}

	startID, found, err := titles.GetID(title.Canon(start))
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("article %q not found", start)
	}
	endID, found, err := titles.GetID(title.Canon(end))
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("article %q not found", end)
	}

	path, found, err := pathsolver.Solve(startID, endID, outgoing, incoming)
	if err != nil {
		return err
	}
	return printPath(titles, path, found)
}

// printPath renders a solved path exactly as spec.md §7 specifies:
// "start"/"end" markers on the endpoints, a numbered line per intermediate
// article, or "No path exists." if none was found.
func printPath(titles *titlemap.TitleMap, path []uint32, found bool) error {
	if !found {
		fmt.Println("\nNo path exists.")
		return nil
	}

	fmt.Printf("\nMinimal path of degree %d found!\n", len(path)-1)
	for i, id := range path {
		t, ok, err := titles.GetTitle(id)
		if err != nil {
			return err
		}
		if !ok {
			t = fmt.Sprintf("<unknown article %d>", id)
		}
		switch {
		case i == 0:
			fmt.Printf("start %s\n", t)
		case i == len(path)-1:
			fmt.Printf("  end %s\n", t)
		default:
			fmt.Printf("%5s %s\n", fmt.Sprintf("%d.", i), t)
		}
	}
	return nil
}
