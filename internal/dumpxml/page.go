// SPDX-License-Identifier: MIT

package dumpxml

import (
	"fmt"
	"strconv"
	"time"
)

// PageRecord is one <page> element from the dump, parsed into the fields
// this system needs. Redirect holds the target title when the page is a
// redirect.
type PageRecord struct {
	Title     string
	Namespace uint32
	ID        uint32
	Redirect  string
	HasRedirect bool
	Revision  Revision
}

// Revision is the single revision carried by each PageRecord in a
// multistream dump (one revision per page).
type Revision struct {
	ID        uint32
	Timestamp time.Time
	Model     string
	Format    string
	Text      string
}

// parsePage converts a parsed <page> Element into a PageRecord.
func parsePage(e Element) (PageRecord, error) {
	var p PageRecord
	for _, child := range e.Children {
		switch child.Name {
		case "title":
			p.Title = child.Text
		case "ns":
			n, err := strconv.ParseUint(child.Text, 10, 32)
			if err != nil {
				return PageRecord{}, fmt.Errorf("dumpxml: bad <ns>: %w", err)
			}
			p.Namespace = uint32(n)
		case "id":
			n, err := strconv.ParseUint(child.Text, 10, 32)
			if err != nil {
				return PageRecord{}, fmt.Errorf("dumpxml: bad <id>: %w", err)
			}
			p.ID = uint32(n)
		case "redirect":
			title, _ := child.Attr("title")
			p.Redirect = title
			p.HasRedirect = true
		case "revision":
			rev, err := parseRevision(child)
			if err != nil {
				return PageRecord{}, err
			}
			p.Revision = rev
		}
	}
	return p, nil
}

func parseRevision(e Element) (Revision, error) {
	var r Revision
	for _, child := range e.Children {
		switch child.Name {
		case "id":
			n, err := strconv.ParseUint(child.Text, 10, 32)
			if err != nil {
				return Revision{}, fmt.Errorf("dumpxml: bad revision <id>: %w", err)
			}
			r.ID = uint32(n)
		case "timestamp":
			t, err := time.Parse(time.RFC3339, child.Text)
			if err != nil {
				return Revision{}, fmt.Errorf("dumpxml: bad <timestamp>: %w", err)
			}
			r.Timestamp = t
		case "model":
			r.Model = child.Text
		case "format":
			r.Format = child.Text
		case "text":
			r.Text = child.Text
		}
	}
	return r, nil
}
