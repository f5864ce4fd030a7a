// Package ctgov is a client for the ClinicalTrials.gov v2 studies API.
package ctgov

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/evidence-cli/internal/resilience"
)

const defaultBaseURL = "https://clinicaltrials.gov/api/v2"

// Client searches registered studies.
type Client interface {
	SearchStudies(ctx context.Context, term string, pageSize int) (*StudiesResponse, error)
}

// StudiesResponse is the response from /studies.
type StudiesResponse struct {
	Studies       []Study `json:"studies"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

// Study is one registry record.
type Study struct {
	ProtocolSection ProtocolSection `json:"protocolSection"`
}

// ProtocolSection holds the study's protocol modules.
type ProtocolSection struct {
	IdentificationModule    IdentificationModule    `json:"identificationModule"`
	StatusModule            StatusModule            `json:"statusModule"`
	DesignModule            DesignModule            `json:"designModule"`
	ConditionsModule        ConditionsModule        `json:"conditionsModule"`
	ArmsInterventionsModule ArmsInterventionsModule `json:"armsInterventionsModule"`
}

// IdentificationModule identifies the study.
type IdentificationModule struct {
	NCTID      string `json:"nctId"`
	BriefTitle string `json:"briefTitle"`
}

// StatusModule carries the recruitment status.
type StatusModule struct {
	OverallStatus string `json:"overallStatus"`
}

// DesignModule carries the trial phases, e.g. ["PHASE1","PHASE2"].
type DesignModule struct {
	Phases []string `json:"phases"`
}

// ConditionsModule lists studied conditions.
type ConditionsModule struct {
	Conditions []string `json:"conditions"`
}

// ArmsInterventionsModule lists interventions.
type ArmsInterventionsModule struct {
	Interventions []Intervention `json:"interventions"`
}

// Intervention is a drug, device or procedure under study.
type Intervention struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// NCTID returns the registry identifier.
func (s Study) NCTID() string { return s.ProtocolSection.IdentificationModule.NCTID }

// InterventionNames returns the non-empty intervention names in order.
func (s Study) InterventionNames() []string {
	var names []string
	for _, iv := range s.ProtocolSection.ArmsInterventionsModule.Interventions {
		if iv.Name != "" {
			names = append(names, iv.Name)
		}
	}
	return names
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a ClinicalTrials.gov client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchStudies(ctx context.Context, term string, pageSize int) (*StudiesResponse, error) {
	params := url.Values{}
	params.Set("query.term", term)
	params.Set("pageSize", strconv.Itoa(pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/studies?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "ctgov: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.TransportError(ctx, eris.Wrap(err, "ctgov: send request"))
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.TransportError(ctx, eris.Wrap(err, "ctgov: read response"))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError(eris.Errorf("ctgov: unexpected status %d: %s", resp.StatusCode, string(body)), resp.StatusCode)
	}

	return decodeStudies(body)
}

// decodeStudies accepts either {"studies":[...]} or a bare array.
func decodeStudies(body []byte) (*StudiesResponse, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var studies []Study
		if err := json.Unmarshal(trimmed, &studies); err != nil {
			return nil, eris.Wrap(err, "ctgov: unmarshal study list")
		}
		return &StudiesResponse{Studies: studies}, nil
	}

	var result StudiesResponse
	if err := json.Unmarshal(trimmed, &result); err != nil {
		return nil, eris.Wrap(err, "ctgov: unmarshal response")
	}
	return &result, nil
}
