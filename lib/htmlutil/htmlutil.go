package htmlutil

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`[\r\n\s]+`)

// CellText extracts the text of a table cell with surrounding whitespace
// trimmed and internal newlines collapsed to single spaces.
func CellText(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, node := range sel.Nodes {
		getTextRecursive(node, &buffer)
	}
	text := innerWhitespace.ReplaceAllString(buffer.String(), " ")
	return strings.Trim(text, " \t\n")
}

// FirstAnchorURL returns the href of the first <a href> inside sel, resolved
// against base. nil when the selection holds no usable anchor.
func FirstAnchorURL(base *url.URL, sel *goquery.Selection) *url.URL {
	href, ok := sel.Find("a[href]").First().Attr("href")
	if !ok || href == "" {
		return nil
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return nil
	}
	if base == nil {
		return parsed
	}
	return base.ResolveReference(parsed)
}
