package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// flattenHTML extracts the visible text from an HTML-formatted message body
// so the relevance filter sees words, not markup. On parse failure the raw
// input is returned unchanged.
func flattenHTML(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	doc.Find("br").Each(func(_ int, sel *goquery.Selection) {
		sel.ReplaceWithHtml("\n")
	})
	text := doc.Text()
	return strings.TrimSpace(text)
}
