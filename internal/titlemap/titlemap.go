// SPDX-License-Identifier: MIT

// Package titlemap implements the bijective {id ↔ canonical title} index
// built on top of internal/pmap. See spec §4.6 ("TitleMap").
package titlemap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zeramorphic/wikipedia/internal/dumpxml"
	"github.com/zeramorphic/wikipedia/internal/pmap"
	"github.com/zeramorphic/wikipedia/internal/title"
)

// TitleMap pairs two partitioned maps so that either direction can be looked
// up, loaded, and persisted independently.
type TitleMap struct {
	idToTitle *pmap.Map[uint32, string]
	titleToID *pmap.Map[string, uint32]

	// article records, per id, whether the page is eligible to be picked by
	// the `random` command: main namespace (ns == 0) and not a redirect.
	// See spec §4.9 / SPEC_FULL §7 "Redirect awareness".
	article *pmap.Map[uint32, bool]
}

// New creates an empty TitleMap whose on-disk home is dataDir.
func New(dataDir string) *TitleMap {
	return &TitleMap{
		idToTitle: pmap.New[uint32, string](dataDir, "id_to_title", idShortKey),
		titleToID: pmap.New[string, uint32](dataDir, "title_to_id", titleShortKey),
		article:   pmap.New[uint32, bool](dataDir, "article_flags", idShortKey),
	}
}

// idShortKey is the low 8 bits of id, written in decimal.
func idShortKey(id uint32) string {
	return strconv.Itoa(int(id & 0xff))
}

// titleShortKey is up to two leading ASCII-alpha characters of the title
// after any namespace prefix, upper-cased; "other" if there are none.
func titleShortKey(t string) string {
	rest := t
	if i := strings.IndexByte(t, ':'); i >= 0 {
		rest = t[i+1:]
	}
	var b strings.Builder
	for i := 0; i < len(rest) && b.Len() < 2; i++ {
		c := rest[i]
		switch {
		case c >= 'a' && c <= 'z':
			b.WriteByte(c - 'a' + 'A')
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c)
		}
	}
	if b.Len() == 0 {
		return "other"
	}
	return b.String()
}

// GetTitle returns the canonical title stored for id.
func (tm *TitleMap) GetTitle(id uint32) (string, bool, error) {
	return tm.idToTitle.Get(id)
}

// GetID canonicalises t and returns the id stored for it.
func (tm *TitleMap) GetID(t string) (uint32, bool, error) {
	return tm.titleToID.Get(title.Canon(t))
}

// Insert records (id, canon(t)) in both directions.
func (tm *TitleMap) Insert(id uint32, t string) {
	canon := title.Canon(t)
	tm.idToTitle.Insert(id, canon)
	tm.titleToID.Insert(canon, id)
}

// InsertPage records a full dump page: its (id, title) pair plus whether it
// is eligible for the `random` command (main namespace, not a redirect).
func (tm *TitleMap) InsertPage(p dumpxml.PageRecord) {
	tm.Insert(p.ID, p.Title)
	tm.article.Insert(p.ID, p.Namespace == 0 && !p.HasRedirect)
}

// IsArticle reports whether id is a main-namespace, non-redirect page.
func (tm *TitleMap) IsArticle(id uint32) (bool, error) {
	eligible, found, err := tm.article.Get(id)
	if err != nil || !found {
		return false, err
	}
	return eligible, nil
}

// MarkLoaded asserts both directions are fully in memory.
func (tm *TitleMap) MarkLoaded() {
	tm.idToTitle.MarkLoaded()
	tm.titleToID.MarkLoaded()
	tm.article.MarkLoaded()
}

// Serialize persists both directions; requires MarkLoaded to have been
// called.
func (tm *TitleMap) Serialize() error {
	if err := tm.idToTitle.Serialize(); err != nil {
		return fmt.Errorf("titlemap: %w", err)
	}
	if err := tm.titleToID.Serialize(); err != nil {
		return fmt.Errorf("titlemap: %w", err)
	}
	if err := tm.article.Serialize(); err != nil {
		return fmt.Errorf("titlemap: %w", err)
	}
	return nil
}

// Deserialize loads the manifests for both directions, optionally loading
// every partition. Returns true only if both manifests existed.
func (tm *TitleMap) Deserialize(full bool) (bool, error) {
	idExisted, err := tm.idToTitle.Deserialize(full)
	if err != nil {
		return false, fmt.Errorf("titlemap: %w", err)
	}
	titleExisted, err := tm.titleToID.Deserialize(full)
	if err != nil {
		return false, fmt.Errorf("titlemap: %w", err)
	}
	if _, err := tm.article.Deserialize(full); err != nil {
		return false, fmt.Errorf("titlemap: %w", err)
	}
	return idExisted && titleExisted, nil
}

// WithAll streams (id, title) for every entry currently in memory; requires
// the id direction to be fully loaded.
func (tm *TitleMap) WithAll(f func(id uint32, t string)) <-chan struct{} {
	return tm.idToTitle.WithAll(f)
}

// Build scans every page in the dump and populates the map, then marks it
// loaded. Callers typically only call this after a failed Deserialize.
func Build(dataDir string, shards []dumpxml.Shard) (*TitleMap, error) {
	tm := New(dataDir)
	out, errc := dumpxml.PageStream(shards, 0, 1, func(p dumpxml.PageRecord) dumpxml.PageRecord {
		return p
	})
	for p := range out {
		tm.InsertPage(p)
	}
	if err := <-errc; err != nil {
		return nil, err
	}
	tm.MarkLoaded()
	return tm, nil
}
