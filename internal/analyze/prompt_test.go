package analyze

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPrompt_EmbedsURLAndText(t *testing.T) {
	t.Parallel()

	p := BuildPrompt("https://news.example/a", "Prezident bəyanat verdi")
	require.Contains(t, p, "https://news.example/a")
	require.Contains(t, p, "Prezident bəyanat verdi")
	require.Contains(t, p, `"reliability"`)
	require.Contains(t, p, `"political_establishment_bias"`)
	require.Contains(t, p, `"flagged_terms"`)
}

func TestBuildManualPrompt_NoTextSection(t *testing.T) {
	t.Parallel()

	p := BuildManualPrompt("https://news.example/a")
	require.Contains(t, p, "https://news.example/a")
	require.Contains(t, p, `"reliability"`)
	require.NotContains(t, p, "Article text:")
}
