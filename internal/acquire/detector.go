// Package acquire drives the headless browser acquisition of article pages.
package acquire

import "strings"

// BlockClassifier decides whether extracted page text is an anti-bot
// challenge rather than real content.
type BlockClassifier func(text string) bool

// defaultBlockMarkers are interstitial/CDN-challenge phrases. Matching is
// by substring on lowercased text; the phrases are specific enough that
// false positives are not expected.
var defaultBlockMarkers = []string{
	"verifying you are human",
	"checking your browser before accessing",
	"just a moment...",
	"attention required! | cloudflare",
	"enable javascript and cookies to continue",
	"access to this page has been denied",
	"please complete the security check",
	"are you a robot",
}

// NewMarkerClassifier builds a classifier from a marker phrase list.
// Passing nil uses the default markers.
func NewMarkerClassifier(markers []string) BlockClassifier {
	if markers == nil {
		markers = defaultBlockMarkers
	}
	lowered := make([]string, len(markers))
	for i, m := range markers {
		lowered[i] = strings.ToLower(m)
	}
	return func(text string) bool {
		haystack := strings.ToLower(text)
		for _, marker := range lowered {
			if strings.Contains(haystack, marker) {
				return true
			}
		}
		return false
	}
}
