package analyze

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/medialens/analyzer/internal/report"
)

// ErrMissingScores rejects model output without the scores block.
var ErrMissingScores = errors.New("model output is missing scores.reliability")

// Coerce validates a generically parsed model object and converts it into
// the typed report. The model is not trusted: missing optional fields are
// defaulted, out-of-range scores are clamped, and output without the core
// scores block is rejected outright.
func Coerce(obj map[string]any) (report.AnalysisReport, error) {
	if !hasReliability(obj) {
		return report.AnalysisReport{}, ErrMissingScores
	}

	encoded, err := json.Marshal(obj)
	if err != nil {
		return report.AnalysisReport{}, fmt.Errorf("re-encode model object: %w", err)
	}
	var rep report.AnalysisReport
	if err := json.Unmarshal(encoded, &rep); err != nil {
		return report.AnalysisReport{}, fmt.Errorf("coerce model object: %w", err)
	}

	rep.Scores.Reliability.Value = clamp(rep.Scores.Reliability.Value, 0, 100)
	rep.Scores.SocioCulturalBias.Value = clamp(rep.Scores.SocioCulturalBias.Value, -5, 5)
	rep.Scores.PoliticalEstablishmentBias.Value = clamp(rep.Scores.PoliticalEstablishmentBias.Value, -5, 5)

	if rep.Diagnostics.FlaggedTerms == nil {
		rep.Diagnostics.FlaggedTerms = []string{}
	}
	if rep.CitedSources == nil {
		rep.CitedSources = []report.CitedSource{}
	}
	return rep, nil
}

func hasReliability(obj map[string]any) bool {
	scores, ok := obj["scores"].(map[string]any)
	if !ok {
		return false
	}
	_, ok = scores["reliability"]
	return ok
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
