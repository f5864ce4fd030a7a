package model

// PageMetadata is the heuristic title/description read from a raw document.
type PageMetadata struct {
	Title           string  `json:"title,omitempty"`
	Description     string  `json:"description,omitempty"`
	SourceURL       string  `json:"source_url"`
	FetchedAt       string  `json:"fetched_at"`
	Confidence      float64 `json:"extraction_confidence"`
	EvidenceSnippet string  `json:"evidence_snippet,omitempty"`
	Error           string  `json:"error,omitempty"`
}
