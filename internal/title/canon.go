// SPDX-License-Identifier: MIT

// Package title implements the canonicalisation of wikilink targets into the
// stored form used as a lookup key everywhere else in the system. See
// https://en.wikipedia.org/wiki/Help:Link#Conversion_to_canonical_form and
// spec §4.5 ("canon").
package title

import (
	"html"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// namespaces maps the lower-cased namespace word to its canonical casing.
var namespaces = map[string]string{
	"main":       "Main",
	"article":    "Article",
	"user":       "User",
	"wikipedia":  "Wikipedia",
	"file":       "File",
	"mediawiki":  "MediaWiki",
	"template":   "Template",
	"help":       "Help",
	"category":   "Category",
	"portal":     "Portal",
	"draft":      "Draft",
	"timedtext":  "TimedText",
	"module":     "Module",
	"special":    "Special",
	"media":      "Media",
}

var upperCaser = cases.Upper(language.Und)

// Canon normalises s to the canonical title form: a recognised namespace
// prefix is re-cased, the remainder is percent- and HTML-entity-decoded,
// underscores become spaces, runs of spaces collapse to one (leading and
// trailing spaces are dropped), and the first code point of the result is
// upper-cased. Canon is idempotent: Canon(Canon(s)) == Canon(s).
func Canon(s string) string {
	namespace, rest := splitNamespace(s)

	decoded := rest
	if unescaped, err := url.PathUnescape(decoded); err == nil {
		decoded = unescaped
	}
	decoded = html.UnescapeString(decoded)

	decoded = norm.NFC.String(decoded)

	decoded = collapseSpaces(strings.ReplaceAll(decoded, "_", " "))
	decoded = upperCaseFirst(decoded)

	if namespace != "" {
		return namespace + ":" + decoded
	}
	return decoded
}

// splitNamespace splits s on the first ':' and, if the prefix case-folds to
// a recognised namespace word, returns its canonical casing and the
// remainder. Otherwise it returns "" and the whole of s unchanged.
func splitNamespace(s string) (namespace, rest string) {
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return "", s
	}
	prefix := strings.TrimSpace(strings.ToLower(s[:i]))
	if canon, ok := namespaces[prefix]; ok {
		return canon, s[i+1:]
	}
	return "", s
}

func upperCaseFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return upperCaser.String(string(r)) + s[size:]
}

func collapseSpaces(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
