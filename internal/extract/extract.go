// Package extract pulls visible article text out of rendered HTML.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// nonContentSelectors are stripped before text extraction; their contents
// never render as article text.
var nonContentSelectors = []string{"script", "style", "noscript", "iframe", "svg"}

// VisibleText parses the HTML document and returns its visible body text
// with whitespace collapsed.
func VisibleText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}
	doc.Find(strings.Join(nonContentSelectors, ",")).Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		return Collapse(doc.Text()), nil
	}
	return Collapse(body.Text()), nil
}

// Collapse squeezes all runs of whitespace down to single spaces.
func Collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Truncate hard-caps the text at limit characters. The bound keeps prompts
// within the model service's context and cost limits. Counting is by rune,
// not byte, so multibyte text keeps its full budget and is never cut
// mid-sequence.
func Truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	count := 0
	for i := range text {
		if count == limit {
			return text[:i]
		}
		count++
	}
	return text
}
