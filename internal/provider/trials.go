package provider

import (
	"context"

	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/pkg/ctgov"
)

// CTGovTrials searches ClinicalTrials.gov.
type CTGovTrials struct {
	client ctgov.Client
}

// NewCTGovTrials creates the trial adapter.
func NewCTGovTrials(client ctgov.Client) *CTGovTrials {
	return &CTGovTrials{client: client}
}

// Search implements TrialProvider.
func (p *CTGovTrials) Search(ctx context.Context, term string, pageSize int) ([]model.Study, error) {
	resp, err := p.client.SearchStudies(ctx, term, pageSize)
	if err != nil {
		return nil, err
	}

	out := make([]model.Study, 0, len(resp.Studies))
	for _, s := range resp.Studies {
		ps := s.ProtocolSection
		out = append(out, model.Study{
			NCTID:         ps.IdentificationModule.NCTID,
			BriefTitle:    ps.IdentificationModule.BriefTitle,
			OverallStatus: ps.StatusModule.OverallStatus,
			Phases:        ps.DesignModule.Phases,
			Conditions:    ps.ConditionsModule.Conditions,
			Interventions: s.InterventionNames(),
		})
	}
	return out, nil
}
