package dom

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type selectionNode struct {
	sel *goquery.Selection
}

// Parse reads an HTML document into a Node.
func Parse(r io.Reader) (Node, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return FromSelection(doc.Selection), nil
}

func ParseString(html string) (Node, error) {
	return Parse(strings.NewReader(html))
}

func FromSelection(sel *goquery.Selection) Node {
	return selectionNode{sel: sel}
}

func (n selectionNode) All(selector string) ([]Node, error) {
	found := n.sel.Find(selector)
	nodes := make([]Node, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, selectionNode{sel: s})
	})
	return nodes, nil
}

func (n selectionNode) Text() (string, error) {
	return n.sel.Text(), nil
}

func (n selectionNode) Attr(name string) (string, error) {
	v, _ := n.sel.Attr(name)
	return v, nil
}
