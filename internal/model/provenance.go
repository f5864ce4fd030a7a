package model

// Provenance records where a piece of evidence was obtained.
type Provenance struct {
	SourceURL       string `json:"source_url" yaml:"source_url"`
	SourceType      string `json:"source_type" yaml:"source_type"`
	FetchedAt       string `json:"fetched" yaml:"fetched"`
	EvidenceSnippet string `json:"evidence_snippet" yaml:"evidence_snippet"`
}
