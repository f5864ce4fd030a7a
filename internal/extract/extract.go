// Package extract derives page metadata (title, description, snippet) from
// raw HTML.
package extract

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/evidence-cli/internal/model"
)

const (
	// ConfidenceFound is reported when a title or description was found.
	ConfidenceFound = 0.6
	// ConfidenceEmpty is reported when parsing worked but found nothing.
	ConfidenceEmpty = 0.2
	// ConfidenceFailed is reported when the content could not be parsed.
	ConfidenceFailed = 0.0

	snippetLimit = 200
)

// Extractor extracts page metadata. The zero value is not usable; use New.
type Extractor struct {
	now func() time.Time
}

// New creates an Extractor using the wall clock.
func New() *Extractor {
	return &Extractor{now: time.Now}
}

// WithNow overrides the clock used for FetchedAt.
func (e *Extractor) WithNow(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// Metadata extracts page metadata using the wall clock.
func Metadata(content, sourceURL string) model.PageMetadata {
	return New().Metadata(content, sourceURL)
}

// Metadata never fails; parse problems come back as a zero-confidence
// result with Error set.
func (e *Extractor) Metadata(content, sourceURL string) (md model.PageMetadata) {
	md = model.PageMetadata{
		SourceURL: sourceURL,
		FetchedAt: e.now().UTC().Format(time.RFC3339),
	}

	defer func() {
		if r := recover(); r != nil {
			md = failed(md, fmt.Errorf("extract: panic: %v", r))
		}
	}()

	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "�")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return failed(md, err)
	}

	md.Title = firstText(doc, "title", "h1")
	md.Description = firstMeta(doc, `meta[name="description"]`, `meta[property="og:description"]`)

	switch {
	case md.Title != "" || md.Description != "":
		md.Confidence = ConfidenceFound
	default:
		md.Confidence = ConfidenceEmpty
	}

	switch {
	case md.Description != "":
		md.EvidenceSnippet = Truncate(md.Description, snippetLimit)
	case md.Title != "":
		md.EvidenceSnippet = Truncate(md.Title, snippetLimit)
	}
	return md
}

func failed(md model.PageMetadata, err error) model.PageMetadata {
	return model.PageMetadata{
		SourceURL:  md.SourceURL,
		FetchedAt:  md.FetchedAt,
		Confidence: ConfidenceFailed,
		Error:      err.Error(),
	}
}

func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return collapseSpace(text)
		}
	}
	return ""
}

func firstMeta(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		content, _ := doc.Find(sel).First().Attr("content")
		if content = strings.TrimSpace(content); content != "" {
			return collapseSpace(content)
		}
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate caps s at n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
