package news

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// NormalizeDate converts a provider date to RFC 3339 in UTC. Dates without
// a zone are read as UTC. Unparseable input, such as "3 hours ago", is
// returned unchanged and empty input stays empty.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return s
	}
	return t.UTC().Format(time.RFC3339)
}
