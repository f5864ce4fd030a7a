package model

// RawArticle is a news candidate decoded at the provider boundary.
// Headline and Summary are only set by HTML-fallback enrichment.
type RawArticle struct {
	Title     string         `json:"title,omitempty"`
	URL       string         `json:"url,omitempty"`
	Source    string         `json:"source,omitempty"`
	Snippet   string         `json:"snippet,omitempty"`
	Published string         `json:"published,omitempty"`
	Raw       map[string]any `json:"raw,omitempty"`

	Headline string `json:"headline,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

// DisplayHeadline returns the provider title, else the enriched headline.
func (a RawArticle) DisplayHeadline() string {
	if a.Title != "" {
		return a.Title
	}
	return a.Headline
}

// DisplaySummary returns the provider snippet, else the enriched summary.
func (a RawArticle) DisplaySummary() string {
	if a.Snippet != "" {
		return a.Snippet
	}
	return a.Summary
}

// NewsItem is a normalized news entry.
type NewsItem struct {
	Headline             string         `json:"headline" yaml:"headline"`
	Summary              string         `json:"summary" yaml:"summary"`
	SourceURL            string         `json:"source_url" yaml:"source_url"`
	Published            string         `json:"published" yaml:"published"`
	SourceName           string         `json:"source_name" yaml:"source_name"`
	Fetched              string         `json:"fetched" yaml:"fetched"`
	Provenance           map[string]any `json:"provenance" yaml:"provenance"`
	ExtractionConfidence *float64       `json:"extraction_confidence,omitempty" yaml:"extraction_confidence,omitempty"`
	EvidenceSnippet      string         `json:"evidence_snippet,omitempty" yaml:"evidence_snippet,omitempty"`
}

// Incomplete reports whether the item lacks a headline or a summary.
func (n NewsItem) Incomplete() bool {
	return n.Headline == "" || n.Summary == ""
}
