package model

import "time"

// FilingRecord is a registry filing decoded at the provider boundary.
type FilingRecord struct {
	Form            string    `json:"form"`
	FilingDate      string    `json:"filing_date"`
	AccessionNumber string    `json:"accession_number,omitempty"`
	PrimaryDocument string    `json:"primary_document,omitempty"`
	FileLocation    string    `json:"file_location,omitempty"`
	SourceURL       string    `json:"source_url"`
	FetchedAt       time.Time `json:"fetched_at"`
}

// Filing is a normalized filing entry.
type Filing struct {
	FormType     string `json:"form" yaml:"form"`
	FilingDate   string `json:"filing_date" yaml:"filing_date"`
	FileLocation string `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	SourceURL    string `json:"source_url" yaml:"source_url"`
	FetchedAt    string `json:"fetched" yaml:"fetched"`
}

// Financial is the normalized financial section of a profile.
// Filings and Provenance always have equal length.
type Financial struct {
	Public     bool         `json:"public" yaml:"public"`
	Filings    []Filing     `json:"filings" yaml:"filings"`
	Provenance []Provenance `json:"provenance" yaml:"provenance"`
}
