package analyze

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCoerce_FullObject(t *testing.T) {
	t.Parallel()

	obj, err := ExtractJSON(`{
		"meta": {"article_type": "news", "title": "Prezident bəyanat verdi", "original_url": "https://news.example/a", "publication": "News Example", "published_at": "2026-08-30"},
		"scores": {
			"reliability": {"value": 82, "rationale": "well sourced"},
			"socio_cultural_bias": {"value": -1, "rationale": "mild framing"},
			"political_establishment_bias": {"value": 3, "rationale": "uncritical of officials"}
		},
		"diagnostics": {"loadedness": {"value": 20, "rationale": "r"}, "sourcing": {"value": 70, "rationale": "r"}, "headline": {"value": 60, "rationale": "r"}, "flagged_terms": ["historic"]},
		"cited_sources": [{"name": "Presidential press office", "role": "primary", "stance": "supportive"}],
		"human_summary": "The president made a statement."
	}`)
	require.NoError(t, err)

	rep, err := Coerce(obj)
	require.NoError(t, err)
	require.Equal(t, float64(82), rep.Scores.Reliability.Value)
	require.Equal(t, "well sourced", rep.Scores.Reliability.Rationale)
	require.Equal(t, "Prezident bəyanat verdi", rep.Meta.Title)
	require.Len(t, rep.CitedSources, 1)
	require.Equal(t, []string{"historic"}, rep.Diagnostics.FlaggedTerms)
}

func TestCoerce_DefaultsMissingOptionalFields(t *testing.T) {
	t.Parallel()

	rep, err := Coerce(map[string]any{
		"scores": map[string]any{
			"reliability": map[string]any{"value": float64(50)},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, rep.Diagnostics.FlaggedTerms)
	require.NotNil(t, rep.CitedSources)
	require.Empty(t, rep.HumanSummary)
}

func TestCoerce_ClampsOutOfRangeScores(t *testing.T) {
	t.Parallel()

	rep, err := Coerce(map[string]any{
		"scores": map[string]any{
			"reliability":                  map[string]any{"value": float64(180)},
			"socio_cultural_bias":          map[string]any{"value": float64(-9)},
			"political_establishment_bias": map[string]any{"value": float64(12)},
		},
	})
	require.NoError(t, err)
	require.Equal(t, float64(100), rep.Scores.Reliability.Value)
	require.Equal(t, float64(-5), rep.Scores.SocioCulturalBias.Value)
	require.Equal(t, float64(5), rep.Scores.PoliticalEstablishmentBias.Value)
}

func TestCoerce_RejectsMissingScores(t *testing.T) {
	t.Parallel()

	_, err := Coerce(map[string]any{"human_summary": "no scores here"})
	require.ErrorIs(t, err, ErrMissingScores)

	_, err = Coerce(map[string]any{"scores": map[string]any{"sourcing": map[string]any{}}})
	require.ErrorIs(t, err, ErrMissingScores)
}
