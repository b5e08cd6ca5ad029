package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// parseTableFragment parses table markup captured from the rendered page.
// The renderer hands back a bare tbody fragment; the HTML5 parser
// discards tr/td elements that appear outside a table, so the fragment
// is re-wrapped before parsing.
func parseTableFragment(html string) (*goquery.Document, error) {
	if !strings.Contains(html, "<table") {
		html = "<table>" + html + "</table>"
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}
