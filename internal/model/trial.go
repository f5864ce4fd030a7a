package model

// Phase is the canonical clinical trial phase.
type Phase string

const (
	PhaseOne           Phase = "phase1"
	PhaseTwo           Phase = "phase2"
	PhaseThree         Phase = "phase3"
	PhaseFour          Phase = "phase4"
	PhaseOneTwo        Phase = "phase1_2"
	PhaseTwoThree      Phase = "phase2_3"
	PhaseNotApplicable Phase = "not_applicable"
	PhaseUnknown       Phase = "unknown"
)

// AllPhases returns every canonical phase.
func AllPhases() []Phase {
	return []Phase{
		PhaseOne,
		PhaseTwo,
		PhaseThree,
		PhaseFour,
		PhaseOneTwo,
		PhaseTwoThree,
		PhaseNotApplicable,
		PhaseUnknown,
	}
}

// Study is a trial registry record decoded at the provider boundary.
type Study struct {
	NCTID         string   `json:"nct_id"`
	BriefTitle    string   `json:"brief_title,omitempty"`
	OverallStatus string   `json:"overall_status,omitempty"`
	Phases        []string `json:"phases,omitempty"`
	Conditions    []string `json:"conditions,omitempty"`
	Interventions []string `json:"interventions,omitempty"`
}

// Trial is a normalized trial candidate. NCTID is the natural key.
type Trial struct {
	NCTID           string `json:"nct" yaml:"nct"`
	Status          string `json:"status" yaml:"status"`
	Phase           Phase  `json:"phase" yaml:"phase"`
	Condition       string `json:"condition,omitempty" yaml:"condition,omitempty"`
	Intervention    string `json:"intervention,omitempty" yaml:"intervention,omitempty"`
	SourceURL       string `json:"source_url" yaml:"source_url"`
	FetchedAt       string `json:"fetched" yaml:"fetched"`
	EvidenceSnippet string `json:"evidence_snippet" yaml:"evidence_snippet"`
	MatchedVariant  string `json:"matched_variant" yaml:"matched_variant"`
}

// Pipeline is the normalized clinical section of a profile.
type Pipeline struct {
	Candidates    []Trial       `json:"candidates" yaml:"candidates"`
	CountsByPhase map[Phase]int `json:"counts_by_phase" yaml:"counts_by_phase"`
}

// EmptyPipeline returns a pipeline that serializes as empty collections.
func EmptyPipeline() Pipeline {
	return Pipeline{
		Candidates:    []Trial{},
		CountsByPhase: map[Phase]int{},
	}
}

// Total returns the number of candidates.
func (p Pipeline) Total() int {
	return len(p.Candidates)
}
