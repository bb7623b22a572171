package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

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

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText returns the text content of every node in the selection with
// non-printable characters removed, outer whitespace trimmed and inner runs of
// whitespace collapsed.
func CleanText(sel *goquery.Selection) string {
	var buffer strings.Builder
	for _, n := range sel.Nodes {
		buffer.WriteString(GetText(n))
	}
	text := removeNonPrintable(buffer.String())
	text = strings.TrimSpace(text)
	return innerWhitespace.ReplaceAllString(text, " ")
}

// FirstAttr returns the first non-blank value of attr among the selection's
// nodes.
func FirstAttr(sel *goquery.Selection, attr string) (string, bool) {
	for _, n := range sel.Nodes {
		for _, a := range n.Attr {
			if a.Key != attr {
				continue
			}
			value := strings.TrimSpace(a.Val)
			if value != "" {
				return value, true
			}
		}
	}
	return "", false
}
