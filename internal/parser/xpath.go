package parser

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// xpathPrefix marks a selector as an XPath expression.
const xpathPrefix = "xpath:"

// xpathTexts evaluates expr against root and returns the article text of each
// matched node.
func xpathTexts(root *html.Node, expr string) ([]string, error) {
	nodes, err := htmlquery.QueryAll(root, expr)
	if err != nil {
		return nil, err
	}

	var values []string
	for _, node := range nodes {
		if val := nodeText(node); val != "" {
			values = append(values, val)
		}
	}
	return values, nil
}

// nodeText mirrors selectionText for html nodes.
func nodeText(node *html.Node) string {
	var paras []string
	for _, p := range htmlquery.Find(node, ".//p") {
		if t := collapseSpaces(htmlquery.InnerText(p)); t != "" {
			paras = append(paras, t)
		}
	}
	if len(paras) > 0 {
		return strings.Join(paras, "\n\n")
	}
	return blockText(htmlquery.InnerText(node))
}
