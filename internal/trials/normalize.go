// Package trials turns clinical trial registry results gathered under
// several company name variants into a deduplicated pipeline.
package trials

import (
	"strings"
	"time"

	"github.com/sells-group/evidence-cli/internal/extract"
	"github.com/sells-group/evidence-cli/internal/model"
)

const (
	snippetLimit  = 150
	defaultStatus = "Unknown"
	studyURLBase  = "https://clinicaltrials.gov/study/"
)

var phaseNoise = strings.NewReplacer("phase", "", " ", "", "_", "", "-", "")

// NormalizePhase maps a registry phase label onto a canonical phase. It is
// case-insensitive and total. Compound labels are checked before single
// digits so "Phase 1/Phase 2" is phase1_2.
func NormalizePhase(raw string) model.Phase {
	p := strings.ToLower(strings.TrimSpace(raw))
	if p == "" {
		return model.PhaseUnknown
	}
	c := phaseNoise.Replace(p)

	switch {
	case strings.Contains(c, "1/2"):
		return model.PhaseOneTwo
	case strings.Contains(c, "2/3"):
		return model.PhaseTwoThree
	case strings.Contains(c, "1"):
		return model.PhaseOne
	case strings.Contains(c, "2"):
		return model.PhaseTwo
	case strings.Contains(c, "3"):
		return model.PhaseThree
	case strings.Contains(c, "4"):
		return model.PhaseFour
	case strings.Contains(p, "not applicable"), c == "na", c == "n/a", c == "notapplicable":
		return model.PhaseNotApplicable
	}
	return model.PhaseUnknown
}

// StudyPhase classifies a study. Registries list both phases of a combined
// study separately, so they are joined before classification.
func StudyPhase(s model.Study) model.Phase {
	return NormalizePhase(strings.Join(s.Phases, "/"))
}

// BuildSnippet joins the title, first condition and first intervention
// with " | ", skipping absent fields, capped at 150 characters.
func BuildSnippet(s model.Study) string {
	var parts []string
	if s.BriefTitle != "" {
		parts = append(parts, s.BriefTitle)
	}
	if c := first(s.Conditions); c != "" {
		parts = append(parts, "Condition: "+c)
	}
	if i := first(s.Interventions); i != "" {
		parts = append(parts, "Intervention: "+i)
	}
	return extract.Truncate(strings.Join(parts, " | "), snippetLimit)
}

// VariantStudies is the result of one registry query.
type VariantStudies struct {
	Variant string
	Studies []model.Study
}

// Normalize deduplicates studies by NCT id across variants. The first
// occurrence wins, including its matched variant. Studies without an id
// are dropped. A batch without a variant is attributed to company.
func Normalize(company string, batches []VariantStudies, fetched time.Time) model.Pipeline {
	p := model.EmptyPipeline()
	seen := make(map[string]struct{})
	ts := fetched.UTC().Format(time.RFC3339)

	for _, b := range batches {
		variant := b.Variant
		if variant == "" {
			variant = company
		}
		for _, s := range b.Studies {
			nct := strings.TrimSpace(s.NCTID)
			if nct == "" {
				continue
			}
			if _, dup := seen[nct]; dup {
				continue
			}
			seen[nct] = struct{}{}

			status := s.OverallStatus
			if status == "" {
				status = defaultStatus
			}
			t := model.Trial{
				NCTID:           nct,
				Status:          status,
				Phase:           StudyPhase(s),
				Condition:       first(s.Conditions),
				Intervention:    first(s.Interventions),
				SourceURL:       studyURLBase + nct,
				FetchedAt:       ts,
				EvidenceSnippet: BuildSnippet(s),
				MatchedVariant:  variant,
			}
			p.Candidates = append(p.Candidates, t)
			p.CountsByPhase[t.Phase]++
		}
	}
	return p
}

func first(xs []string) string {
	for _, x := range xs {
		if x != "" {
			return x
		}
	}
	return ""
}
