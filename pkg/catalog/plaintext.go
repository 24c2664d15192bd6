package catalog

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText renders provider HTML as readable text: block elements and <br>
// become line breaks, images become their alt text, and runs of whitespace
// collapse. Input that fails to parse is returned with whitespace collapsed.
func PlainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return collapseSpaces(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapseSpaces(fragment)
	}

	doc.Find("script, style").Remove()
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		alt, _ := s.Attr("alt")
		s.ReplaceWithHtml(html.EscapeString(alt))
	})
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, tr, h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return collapseSpaces(doc.Text())
}

// collapseSpaces trims each line, squeezes inner whitespace and drops
// empty lines.
func collapseSpaces(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
