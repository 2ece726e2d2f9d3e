// Package report defines the core types shared across the analysis pipeline.
package report

import "time"

// SourceKind identifies where the article text was acquired from.
type SourceKind string

// Content sources recorded on finished reports.
const (
	SourceLive    SourceKind = "Live"
	SourceArchive SourceKind = "Archive"
)

// AnalysisRequest is the inbound payload for the analyze endpoint.
type AnalysisRequest struct {
	URL string `json:"url"`
}

// AcquiredContent is the result of one page acquisition. It is consumed by
// the prompt builder and never persisted on its own.
type AcquiredContent struct {
	RawText    string
	SourceKind SourceKind
	FinalURL   string
}

// Score is a numeric judgement plus the model's rationale for it.
type Score struct {
	Value     float64 `json:"value"`
	Rationale string  `json:"rationale"`
}

// Meta describes the analyzed article.
type Meta struct {
	ArticleType string `json:"article_type"`
	Title       string `json:"title"`
	OriginalURL string `json:"original_url"`
	Publication string `json:"publication"`
	PublishedAt string `json:"published_at"`
}

// Scores holds the three headline judgements of a report.
type Scores struct {
	Reliability                Score `json:"reliability"`
	SocioCulturalBias          Score `json:"socio_cultural_bias"`
	PoliticalEstablishmentBias Score `json:"political_establishment_bias"`
}

// Diagnostics carries the secondary signals backing the scores.
type Diagnostics struct {
	Loadedness   Score    `json:"loadedness"`
	Sourcing     Score    `json:"sourcing"`
	Headline     Score    `json:"headline"`
	FlaggedTerms []string `json:"flagged_terms"`
}

// CitedSource is one source referenced by the article.
type CitedSource struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Stance string `json:"stance"`
}

// AnalysisReport is the persisted artifact of one analysis. Created once on
// a cache miss and immutable afterwards.
type AnalysisReport struct {
	Meta         Meta          `json:"meta"`
	Scores       Scores        `json:"scores"`
	Diagnostics  Diagnostics   `json:"diagnostics"`
	CitedSources []CitedSource `json:"cited_sources"`
	HumanSummary string        `json:"human_summary"`

	// Provenance fields added by the orchestrator after parsing.
	Hash          string     `json:"hash"`
	ModelUsed     string     `json:"modelUsed"`
	ContentSource SourceKind `json:"contentSource"`
}

// CreatedEvent is published after a report lands in the cache. The search
// indexer consumes these asynchronously.
type CreatedEvent struct {
	Hash      string     `json:"hash"`
	URL       string     `json:"url"`
	Model     string     `json:"model"`
	Source    SourceKind `json:"source"`
	CreatedAt time.Time  `json:"created_at"`
}
