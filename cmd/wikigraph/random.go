// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"math/rand"

	"github.com/zeramorphic/wikipedia/internal/titlemap"
)

func runRandom(dumpsDir, dataDir string) error {
	titles, err := loadTitleMap(dataDir, dumpsDir, true)
	if err != nil {
		return err
	}

	id, title, ok, err := randomArticle(titles)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no eligible article found")
	}
	fmt.Printf("%d %s\n", id, title)
	return nil
}

// randomArticle picks a uniformly random main-namespace, non-redirect
// article using reservoir sampling over every loaded title, since
// PartitionedMap has no direct index-based access. See SPEC_FULL §7
// ("random command").
func randomArticle(titles *titlemap.TitleMap) (uint32, string, bool, error) {
	var chosenID uint32
	var chosenTitle string
	found := false
	seen := 0

	<-titles.WithAll(func(id uint32, title string) {
		isArticle, err := titles.IsArticle(id)
		if err != nil || !isArticle {
			return
		}
		seen++
		if rand.Intn(seen) == 0 {
			chosenID = id
			chosenTitle = title
			found = true
		}
	})

	return chosenID, chosenTitle, found, nil
}
