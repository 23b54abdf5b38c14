// Package testutil queries rendered markup in tests.
package testutil

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

// Parse parses markup as an HTML document, failing the test on error.
func Parse(t testing.TB, markup string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("parsing html: %v", err)
	}
	return doc
}

// Find returns every element under n for which match is true, in document
// order.
func Find(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && match(node) {
			found = append(found, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return found
}

// AllByTestID returns the elements whose data-testid equals id.
func AllByTestID(n *html.Node, id string) []*html.Node {
	return Find(n, func(node *html.Node) bool { return Attr(node, "data-testid") == id })
}

// ByTestID returns the first element whose data-testid equals id, or nil.
func ByTestID(n *html.Node, id string) *html.Node {
	if all := AllByTestID(n, id); len(all) > 0 {
		return all[0]
	}
	return nil
}

// ByID returns the first element whose id equals id, or nil.
func ByID(n *html.Node, id string) *html.Node {
	all := Find(n, func(node *html.Node) bool { return Attr(node, "id") == id })
	if len(all) > 0 {
		return all[0]
	}
	return nil
}

// Attr returns the value of attribute key, or "".
func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasClass reports whether n carries class in its class attribute.
func HasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(Attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// Text returns the text content of n with runs of whitespace collapsed.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			b.WriteByte(' ')
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
