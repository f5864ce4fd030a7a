// Package edgar is a client for SEC EDGAR company submissions and the
// ticker to CIK mapping.
package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/evidence-cli/internal/resilience"
)

const (
	defaultBaseURL     = "https://www.sec.gov"
	defaultDataBaseURL = "https://data.sec.gov"
)

// ErrTickerNotFound is returned by LookupCIK for unknown tickers.
var ErrTickerNotFound = eris.New("edgar: ticker not found")

// Client reads EDGAR submissions. SEC requires a descriptive User-Agent
// with a contact address on every request.
type Client interface {
	Submissions(ctx context.Context, cik string) (*SubmissionsResponse, error)
	RecentFilings(ctx context.Context, cik, form string, count int) ([]Filing, error)
	LookupCIK(ctx context.Context, ticker string) (string, error)
}

// SubmissionsResponse is the response from /submissions/CIK##########.json.
type SubmissionsResponse struct {
	CIK     string   `json:"cik"`
	Name    string   `json:"name"`
	Tickers []string `json:"tickers"`
	Filings struct {
		Recent FilingList `json:"recent"`
	} `json:"filings"`
}

// FilingList holds the parallel arrays of recent filings, newest first.
type FilingList struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
}

// Filing is one row of the recent filings list with derived URLs.
type Filing struct {
	CIK             string
	Form            string
	FilingDate      string
	AccessionNumber string
	PrimaryDocument string
	DocumentURL     string
	IndexURL        string
}

// PadCIK left-pads a numeric CIK to ten digits. Non-numeric input is
// returned trimmed.
func PadCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	n, err := strconv.ParseUint(strings.TrimLeft(cik, "0"), 10, 64)
	if err != nil {
		if strings.Trim(cik, "0") == "" && cik != "" {
			return "0000000000"
		}
		return cik
	}
	return fmt.Sprintf("%010d", n)
}

// Filings expands the parallel arrays into rows for cik, keeping only form
// (exact match; empty matches all) and at most count rows (0 = no cap).
func (l FilingList) Filings(baseURL, cik, form string, count int) []Filing {
	bare := strings.TrimLeft(cik, "0")
	var out []Filing
	for i, f := range l.Form {
		if form != "" && f != form {
			continue
		}
		accession := safeIndex(l.AccessionNumber, i)
		if accession == "" {
			continue
		}
		noDashes := strings.ReplaceAll(accession, "-", "")
		primary := safeIndex(l.PrimaryDocument, i)
		folder := fmt.Sprintf("%s/Archives/edgar/data/%s/%s", baseURL, bare, noDashes)

		row := Filing{
			CIK:             cik,
			Form:            f,
			FilingDate:      safeIndex(l.FilingDate, i),
			AccessionNumber: accession,
			PrimaryDocument: primary,
			IndexURL:        folder + "/" + accession + "-index.html",
		}
		if primary != "" {
			row.DocumentURL = folder + "/" + primary
		}
		out = append(out, row)
		if count > 0 && len(out) >= count {
			break
		}
	}
	return out
}

func safeIndex(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the www.sec.gov base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithDataBaseURL overrides the data.sec.gov base URL.
func WithDataBaseURL(url string) Option {
	return func(c *httpClient) {
		c.dataBaseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	userAgent   string
	baseURL     string
	dataBaseURL string
	http        *http.Client

	tickerMu sync.Mutex
	tickers  map[string]string
}

// NewClient creates an EDGAR client.
func NewClient(userAgent string, opts ...Option) Client {
	c := &httpClient{
		userAgent:   userAgent,
		baseURL:     defaultBaseURL,
		dataBaseURL: defaultDataBaseURL,
		http: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "edgar: create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.TransportError(ctx, eris.Wrap(err, "edgar: send request"))
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.TransportError(ctx, eris.Wrap(err, "edgar: read response"))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError(eris.Errorf("edgar: unexpected status %d from %s", resp.StatusCode, url), resp.StatusCode)
	}
	return body, nil
}

func (c *httpClient) Submissions(ctx context.Context, cik string) (*SubmissionsResponse, error) {
	padded := PadCIK(cik)
	body, err := c.get(ctx, fmt.Sprintf("%s/submissions/CIK%s.json", c.dataBaseURL, padded))
	if err != nil {
		return nil, err
	}

	var result SubmissionsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "edgar: unmarshal submissions")
	}
	return &result, nil
}

func (c *httpClient) RecentFilings(ctx context.Context, cik, form string, count int) ([]Filing, error) {
	sub, err := c.Submissions(ctx, cik)
	if err != nil {
		return nil, err
	}
	return sub.Filings.Recent.Filings(c.baseURL, PadCIK(cik), form, count), nil
}

type tickerEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// LookupCIK resolves a ticker to a ten-digit CIK. The ticker file is loaded
// once per client.
func (c *httpClient) LookupCIK(ctx context.Context, ticker string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(ticker))
	if normalized == "" {
		return "", eris.Wrap(ErrTickerNotFound, "empty ticker")
	}

	c.tickerMu.Lock()
	defer c.tickerMu.Unlock()

	if c.tickers == nil {
		body, err := c.get(ctx, c.baseURL+"/files/company_tickers.json")
		if err != nil {
			return "", eris.Wrap(err, "edgar: fetch company tickers")
		}
		var entries map[string]tickerEntry
		if err := json.Unmarshal(body, &entries); err != nil {
			return "", eris.Wrap(err, "edgar: unmarshal company tickers")
		}
		c.tickers = make(map[string]string, len(entries))
		for _, e := range entries {
			c.tickers[strings.ToUpper(e.Ticker)] = fmt.Sprintf("%010d", e.CIK)
		}
	}

	cik, ok := c.tickers[normalized]
	if !ok {
		return "", eris.Wrapf(ErrTickerNotFound, "ticker %s", normalized)
	}
	return cik, nil
}
