// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/zeramorphic/wikipedia/internal/title"
)

func runLinks(dumpsDir, dataDir, article string) error {
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

	id, found, err := titles.GetID(title.Canon(article))
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("article %q not found", article)
	}

	outs, _, err := outgoing.Get(id)
	if err != nil {
		return err
	}
	for _, link := range outs {
		title, found, err := titles.GetTitle(link)
		if err != nil {
			return err
		}
		if found {
			fmt.Printf("> %s\n", title)
		}
	}

	ins, _, err := incoming.Get(id)
	if err != nil {
		return err
	}
	for _, link := range ins {
		title, found, err := titles.GetTitle(link)
		if err != nil {
			return err
		}
		if found {
			fmt.Printf("< %s\n", title)
		}
	}
	return nil
}
