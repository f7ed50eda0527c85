// Package dom is the read-only query surface the field extractors run against.
// A Node is backed either by a live playwright page or by a parsed HTML document.
package dom

import (
	"regexp"
	"strings"
)

type Node interface {
	// All returns every descendant matching selector, in document order.
	All(selector string) ([]Node, error)
	// Text returns the node's text content, untrimmed.
	Text() (string, error)
	// Attr returns the attribute value, or "" when it is not set.
	Attr(name string) (string, error)
}

// First returns the first descendant matching selector.
func First(root Node, selector string) (Node, bool) {
	nodes, err := root.All(selector)
	if err != nil || len(nodes) == 0 {
		return nil, false
	}
	return nodes[0], true
}

// FirstText is the trimmed text of the first match, or "" when nothing matches.
func FirstText(root Node, selector string) string {
	node, ok := First(root, selector)
	if !ok {
		return ""
	}
	text, err := node.Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// Texts returns the text of every match, skipping nodes that fail to read.
func Texts(root Node, selector string) []string {
	nodes, err := root.All(selector)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		text, err := n.Text()
		if err != nil {
			continue
		}
		out = append(out, text)
	}
	return out
}

// HasClass reports whether the node's class attribute lists name.
func HasClass(node Node, name string) bool {
	class, err := node.Attr("class")
	if err != nil {
		return false
	}
	for _, c := range strings.Fields(class) {
		if c == name {
			return true
		}
	}
	return false
}

var whitespace = regexp.MustCompile(`\s+`)

// CollapseSpace folds whitespace runs into single spaces and trims the result.
func CollapseSpace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
