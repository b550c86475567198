// SPDX-License-Identifier: MIT

// Package linkgraph builds and queries the outgoing/incoming adjacency
// indices between articles. See spec §4.7 ("Link graph").
package linkgraph

import (
	"strings"

	"github.com/zeramorphic/wikipedia/internal/title"
)

// Wikilink is a single `[[target]]` or `[[target|text]]` occurrence found in
// wikitext.
type Wikilink struct {
	Target string
	Text   string
}

// FindLinks does a naive scan for `[[...]]` occurrences. It does not handle
// nested links well (a link's Text may come out shorter than expected for
// those), but Target is always correct for non-nested links.
func FindLinks(text string) []Wikilink {
	var links []Wikilink
	for {
		start := strings.Index(text, "[[")
		if start < 0 {
			break
		}
		rest := text[start+2:]
		end := strings.Index(rest, "]]")
		if end < 0 {
			break
		}
		contents := rest[:end]
		if target, body, ok := strings.Cut(contents, "|"); ok {
			links = append(links, Wikilink{Target: target, Text: body})
		} else {
			links = append(links, Wikilink{Target: contents, Text: contents})
		}
		text = rest[end+2:]
	}
	return links
}

// TargetRoot strips any `#anchor` suffix from the link's target and
// canonicalises what remains.
func (w Wikilink) TargetRoot() string {
	target := w.Target
	if i := strings.IndexByte(target, '#'); i >= 0 {
		target = target[:i]
	}
	return title.Canon(target)
}

// canonicalNamespaces is the fixed set of namespace words Canon recognises;
// SplitNamespace only reports a namespace here, since target_root already
// ran every target through Canon.
var canonicalNamespaces = map[string]bool{
	"Main": true, "Article": true, "User": true, "Wikipedia": true,
	"File": true, "MediaWiki": true, "Template": true, "Help": true,
	"Category": true, "Portal": true, "Draft": true, "TimedText": true,
	"Module": true, "Special": true, "Media": true,
}

// SplitNamespace splits an already-canonicalised title on its first ':' and
// reports whether the prefix is one of the fixed namespace words.
func SplitNamespace(canonTitle string) (namespace string, hasNamespace bool, remainder string) {
	i := strings.IndexByte(canonTitle, ':')
	if i < 0 {
		return "", false, canonTitle
	}
	prefix := canonTitle[:i]
	if canonicalNamespaces[prefix] {
		return prefix, true, canonTitle[i+1:]
	}
	return "", false, canonTitle
}

// interwikiPrefixes names the external-wiki prefixes treated as interwiki
// links and therefore never resolved against this wiki's own TitleMap.
var interwikiPrefixes = map[string]bool{
	"commons": true, "wikt": true, "wiktionary": true, "wikidata": true,
	"wikisource": true, "wikinews": true, "wikibooks": true, "wikiquote": true,
	"wikiversity": true, "wikivoyage": true, "meta": true, "species": true,
	"en": true, "de": true, "fr": true, "es": true, "it": true, "ja": true,
	"zh": true, "ru": true, "pt": true, "nl": true, "pl": true, "sv": true,
}

// IsInterwikiLink reports whether remainder names an external wiki: a
// lower-cased prefix before ':' that matches the configured interwiki set.
func IsInterwikiLink(remainder string) bool {
	i := strings.IndexByte(remainder, ':')
	if i < 0 {
		return false
	}
	prefix := strings.ToLower(strings.TrimSpace(remainder[:i]))
	return interwikiPrefixes[prefix]
}
