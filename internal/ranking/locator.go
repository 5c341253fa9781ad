package ranking

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/cafepulse/internal/types"
)

// Locator finds the JSON payload inside a rendered page.
type Locator interface {
	Locate(page string) (string, error)
}

func parse(page string) (*html.Node, error) {
	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return root, nil
}

// NewLocator returns a CSS (goquery) or XPath (htmlquery) locator.
func NewLocator(selectorType, selector string) (Locator, error) {
	switch selectorType {
	case "", "css":
		return &cssLocator{selector: selector}, nil
	case "xpath":
		return &xpathLocator{expr: selector}, nil
	}
	return nil, fmt.Errorf("unknown selector type %q", selectorType)
}

type cssLocator struct {
	selector string
}

func (l *cssLocator) Locate(page string) (string, error) {
	root, err := parse(page)
	if err != nil {
		return "", err
	}
	sel := goquery.NewDocumentFromNode(root).Find(l.selector).First()
	if sel.Length() == 0 {
		return "", types.ErrNoPayload
	}
	text := strings.TrimSpace(sel.Text())
	if text == "" {
		return "", types.ErrNoPayload
	}
	return text, nil
}

type xpathLocator struct {
	expr string
}

func (l *xpathLocator) Locate(page string) (string, error) {
	root, err := parse(page)
	if err != nil {
		return "", err
	}
	node, err := htmlquery.Query(root, l.expr)
	if err != nil {
		return "", fmt.Errorf("xpath %q: %w", l.expr, err)
	}
	if node == nil {
		return "", types.ErrNoPayload
	}
	text := strings.TrimSpace(htmlquery.InnerText(node))
	if text == "" {
		return "", types.ErrNoPayload
	}
	return text, nil
}
