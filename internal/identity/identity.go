// Package identity reads canonical company identities produced by the
// upstream resolution step.
package identity

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/evidence-cli/internal/fetcher"
	"github.com/sells-group/evidence-cli/internal/model"
)

// Columns of the canonical CSV.
const (
	ColInputName    = "input_name"
	ColResolvedName = "resolved_name"
	ColTicker       = "ticker"
	ColCIK          = "cik"
	ColWebsite      = "website"
	ColNameVariants = "name_variants"
)

// LoadCSV reads every identity in the canonical CSV at path. Rows without
// any name are skipped.
func LoadCSV(ctx context.Context, path string) ([]model.Identity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "identity: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	recs, errc := fetcher.StreamCSV(ctx, f, fetcher.CSVOptions{TrimSpace: true})

	var out []model.Identity
	for rec := range recs {
		id := FromRecord(rec)
		if id.Name() == "" {
			zap.L().Warn("identity: skipping row without a name")
			continue
		}
		out = append(out, id)
	}
	if err := <-errc; err != nil {
		return nil, eris.Wrapf(err, "identity: read %s", path)
	}
	return out, nil
}

// FromRecord maps one CSV row onto an Identity.
func FromRecord(rec fetcher.Record) model.Identity {
	id := model.Identity{
		InputName:    blank(rec.Get(ColInputName)),
		ResolvedName: blank(rec.Get(ColResolvedName)),
		Ticker:       strings.ToUpper(blank(rec.Get(ColTicker))),
		CIK:          cleanCIK(rec.Get(ColCIK)),
		Website:      blank(rec.Get(ColWebsite)),
	}
	if id.ResolvedName == "" {
		id.ResolvedName = id.InputName
	}
	if id.InputName == "" {
		id.InputName = id.ResolvedName
	}
	id.NameVariants = ParseVariants(rec.Get(ColNameVariants))
	if len(id.NameVariants) == 0 && id.ResolvedName != "" {
		id.NameVariants = []string{id.ResolvedName}
	}
	return id
}

// blank maps the spreadsheet placeholders for a missing value to "".
func blank(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "nan", "none", "null":
		return ""
	}
	return s
}

// cleanCIK drops the ".0" a float-typed column leaves behind.
func cleanCIK(s string) string {
	s = blank(s)
	return strings.TrimSuffix(s, ".0")
}

// ParseVariants reads a name variant list written as a JSON array, a
// Python list literal or a ';'-separated string. Blank entries are dropped.
func ParseVariants(s string) []string {
	s = blank(s)
	if s == "" {
		return nil
	}

	if strings.HasPrefix(s, "[") {
		var arr []string
		if err := json.Unmarshal([]byte(s), &arr); err == nil {
			return compact(arr)
		}
		return compact(parseListLiteral(s))
	}
	return compact(strings.Split(s, ";"))
}

// parseListLiteral extracts the quoted items of a list literal such as
// ['Acme', "Acme's Labs"]. A backslash escapes the next character.
func parseListLiteral(s string) []string {
	var (
		out   []string
		cur   strings.Builder
		quote rune
		esc   bool
	)
	for _, r := range s {
		switch {
		case quote == 0:
			if r == '\'' || r == '"' {
				quote = r
				cur.Reset()
			}
		case esc:
			cur.WriteRune(r)
			esc = false
		case r == '\\':
			esc = true
		case r == quote:
			out = append(out, cur.String())
			quote = 0
		default:
			cur.WriteRune(r)
		}
	}
	return out
}

func compact(in []string) []string {
	var out []string
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

var corporateSuffixes = []string{"Inc.", "Inc", "Ltd.", "Ltd", "Corp.", "Corp", "Corporation", "LLC", "PLC"}

// GenerateNameVariants returns name followed by the name with a trailing
// corporate suffix word removed.
func GenerateNameVariants(name string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	out := []string{name}
	seen := map[string]bool{name: true}
	for _, suf := range corporateSuffixes {
		stem, ok := strings.CutSuffix(name, suf)
		if !ok || !(strings.HasSuffix(stem, " ") || strings.HasSuffix(stem, ",")) {
			continue
		}
		v := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(stem), ","))
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
