package dom

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// DefaultReadTimeout bounds each text or attribute read on a live page.
const DefaultReadTimeout = 5 * time.Second

type locatorNode struct {
	loc     playwright.Locator
	timeout float64
}

// FromPage roots a Node at the page's document element.
func FromPage(page playwright.Page, timeout time.Duration) Node {
	return FromLocator(page.Locator(":root"), timeout)
}

func FromLocator(loc playwright.Locator, timeout time.Duration) Node {
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	return locatorNode{loc: loc, timeout: float64(timeout.Milliseconds())}
}

func (n locatorNode) All(selector string) ([]Node, error) {
	locs, err := n.loc.Locator(selector).All()
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", selector, err)
	}
	nodes := make([]Node, 0, len(locs))
	for _, l := range locs {
		nodes = append(nodes, locatorNode{loc: l, timeout: n.timeout})
	}
	return nodes, nil
}

func (n locatorNode) Text() (string, error) {
	text, err := n.loc.TextContent(playwright.LocatorTextContentOptions{
		Timeout: playwright.Float(n.timeout),
	})
	if err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return text, nil
}

func (n locatorNode) Attr(name string) (string, error) {
	v, err := n.loc.GetAttribute(name, playwright.LocatorGetAttributeOptions{
		Timeout: playwright.Float(n.timeout),
	})
	if err != nil {
		return "", fmt.Errorf("failed to read attribute %s: %w", name, err)
	}
	return v, nil
}
