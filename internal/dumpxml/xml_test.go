// SPDX-License-Identifier: MIT

package dumpxml

import "testing"

func TestParseElementSimple(t *testing.T) {
	elem, rest, err := ParseElement(`<page><title>Foo</title><ns>0</ns></page>`)
	if err != nil {
		t.Fatal(err)
	}
	if rest != "" {
		t.Errorf("rest = %q, want empty", rest)
	}
	if elem.Name != "page" || len(elem.Children) != 2 {
		t.Fatalf("elem = %+v", elem)
	}
	if elem.Children[0].Name != "title" || elem.Children[0].Text != "Foo" {
		t.Errorf("children[0] = %+v", elem.Children[0])
	}
}

func TestParseElementSelfClosing(t *testing.T) {
	elem, rest, err := ParseElement(`<redirect title="Bar"/>`)
	if err != nil {
		t.Fatal(err)
	}
	if rest != "" {
		t.Errorf("rest = %q, want empty", rest)
	}
	title, ok := elem.Attr("title")
	if !ok || title != "Bar" {
		t.Errorf("title attr = %q, %v, want %q, true", title, ok, "Bar")
	}
	if len(elem.Children) != 0 {
		t.Errorf("self-closing element should have no children, got %+v", elem.Children)
	}
}

func TestParseElementVoidHr(t *testing.T) {
	elem, rest, err := ParseElement(`<body><hr><p>after</p></body>`)
	if err != nil {
		t.Fatal(err)
	}
	if rest != "" {
		t.Errorf("rest = %q, want empty", rest)
	}
	if len(elem.Children) != 2 {
		t.Fatalf("elem.Children = %+v, want 2 children", elem.Children)
	}
	if elem.Children[0].Name != "hr" || len(elem.Children[0].Children) != 0 {
		t.Errorf("hr child = %+v, want an empty void element", elem.Children[0])
	}
	if elem.Children[1].Name != "p" || elem.Children[1].Text != "after" {
		t.Errorf("p child = %+v", elem.Children[1])
	}
}

func TestParseElementImplicitClose(t *testing.T) {
	// <a> is never explicitly closed: the </b> tag propagates outward and
	// implicitly closes <a>.
	elem, rest, err := ParseElement(`<b><a>text</b>`)
	if err != nil {
		t.Fatal(err)
	}
	if elem.Name != "b" {
		t.Fatalf("outer elem.Name = %q, want %q", elem.Name, "b")
	}
	if len(elem.Children) != 1 || elem.Children[0].Name != "a" {
		t.Fatalf("elem.Children = %+v", elem.Children)
	}
	if rest != "" {
		t.Errorf("rest = %q, want the </b> tag to have been consumed by the outer element", rest)
	}
}

func TestParseElementAttributes(t *testing.T) {
	elem, _, err := ParseElement(`<page ns="0" id="42">x</page>`)
	if err != nil {
		t.Fatal(err)
	}
	ns, ok := elem.Attr("ns")
	if !ok || ns != "0" {
		t.Errorf("ns = %q, %v", ns, ok)
	}
	id, ok := elem.Attr("id")
	if !ok || id != "42" {
		t.Errorf("id = %q, %v", id, ok)
	}
}
