// Package analyze turns extracted article text into a validated report via
// a resilient model invocation.
package analyze

import "fmt"

// reportSchema is the fixed output contract embedded in every prompt. The
// service is asked for structured output but not trusted to honor it
// strictly; tolerant extraction and coercion guard the other side.
const reportSchema = `{
  "meta": {
    "article_type": "news | opinion | analysis | press_release | satire",
    "title": "string",
    "original_url": "string",
    "publication": "string",
    "published_at": "string (ISO 8601 if known, empty otherwise)"
  },
  "scores": {
    "reliability": {"value": "number 0-100", "rationale": "string"},
    "socio_cultural_bias": {"value": "number -5..+5", "rationale": "string"},
    "political_establishment_bias": {"value": "number -5..+5", "rationale": "string"}
  },
  "diagnostics": {
    "loadedness": {"value": "number 0-100", "rationale": "string"},
    "sourcing": {"value": "number 0-100", "rationale": "string"},
    "headline": {"value": "number 0-100", "rationale": "string"},
    "flagged_terms": ["string"]
  },
  "cited_sources": [{"name": "string", "role": "string", "stance": "string"}],
  "human_summary": "string"
}`

// BuildPrompt renders the analysis instruction for an article.
func BuildPrompt(articleURL, text string) string {
	return fmt.Sprintf(`You are a media bias and reliability analyst. Analyze the article below and respond with a single JSON object, no prose before or after, matching exactly this schema:

%s

Score reliability from 0 (fabricated) to 100 (rigorously sourced). Score both bias axes from -5 to +5 where negative means critical of the establishment/traditional values and positive means supportive. Every score must carry a short rationale. List loaded or emotionally charged terms under flagged_terms. Summarize the article for a general reader in human_summary.

Article URL: %s

Article text:
%s`, reportSchema, articleURL, text)
}

// BuildManualPrompt renders the same instruction for a page we could not
// fetch, so a human can run the analysis themselves.
func BuildManualPrompt(articleURL string) string {
	return fmt.Sprintf(`You are a media bias and reliability analyst. Open the article at the URL below, analyze it, and respond with a single JSON object matching exactly this schema:

%s

Article URL: %s`, reportSchema, articleURL)
}
