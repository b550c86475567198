// SPDX-License-Identifier: MIT

package title

import "testing"

func TestCanonScenario(t *testing.T) {
	// spec.md §8 scenario 2.
	cases := []struct{ in, want string }{
		{"help:foo_bar", "Help:Foo bar"},
		{"notanamespace:foo", "Notanamespace:foo"},
		{"%C3%A9cole", "École"},
	}
	for _, c := range cases {
		if got := Canon(c.in); got != c.want {
			t.Errorf("Canon(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCanonIdempotent(t *testing.T) {
	inputs := []string{
		"help:foo_bar", "notanamespace:foo", "%C3%A9cole",
		"Category:Some  thing", "plain_title", "Template:foo__bar  baz",
		"école", "",
	}
	for _, in := range inputs {
		once := Canon(in)
		twice := Canon(once)
		if once != twice {
			t.Errorf("Canon not idempotent for %q: Canon(s)=%q, Canon(Canon(s))=%q", in, once, twice)
		}
	}
}

func TestCanonCollapsesSpaceRuns(t *testing.T) {
	got := Canon("foo___bar    baz")
	want := "Foo bar baz"
	if got != want {
		t.Errorf("Canon(%q) = %q, want %q", "foo___bar    baz", got, want)
	}
}

func TestCanonUnrecognisedNamespaceKeepsColon(t *testing.T) {
	got := Canon("Talk:something")
	want := "Talk:something"
	if got != want {
		t.Errorf("Canon(%q) = %q, want %q", "Talk:something", got, want)
	}
}
