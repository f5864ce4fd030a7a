package model

import "time"

// Identity is the canonical company identity supplied by the resolution step.
// The pipeline treats it as read-only input.
type Identity struct {
	InputName    string   `json:"input_name" yaml:"input_name"`
	ResolvedName string   `json:"resolved_name" yaml:"resolved_name"`
	Ticker       string   `json:"ticker,omitempty" yaml:"ticker,omitempty"`
	CIK          string   `json:"cik,omitempty" yaml:"cik,omitempty"`
	Website      string   `json:"website,omitempty" yaml:"website,omitempty"`
	NameVariants []string `json:"name_variants" yaml:"name_variants"`
}

// Name returns the resolved name, falling back to the input name.
func (i Identity) Name() string {
	if i.ResolvedName != "" {
		return i.ResolvedName
	}
	return i.InputName
}

// IsPublic reports whether the company has a public-market identifier.
func (i Identity) IsPublic() bool {
	return i.Ticker != "" || i.CIK != ""
}

// QueryVariants returns the name variants to search, or the resolved name
// when no variants are known.
func (i Identity) QueryVariants() []string {
	var out []string
	for _, v := range i.NameVariants {
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 && i.Name() != "" {
		out = []string{i.Name()}
	}
	return out
}

// CompanyProfile is the merged evidence record for one company in one run.
// A rerun produces a new profile rather than mutating a stored one.
type CompanyProfile struct {
	ID        string     `json:"id" yaml:"id"`
	RunID     string     `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	InputName string     `json:"input_name" yaml:"input_name"`
	Canonical Identity   `json:"canonical" yaml:"canonical"`
	Pipeline  Pipeline   `json:"pipeline" yaml:"pipeline"`
	Financial Financial  `json:"financial" yaml:"financial"`
	News      []NewsItem `json:"news" yaml:"news"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
}
