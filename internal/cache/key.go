package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const maxKeyRunes = 180

// Key derives a filesystem-safe cache key from a company name. Letters,
// digits, spaces, '.' and '_' are kept, everything else becomes '_', and
// spaces become '_'. When sanitizing changed the name at all, or left
// nothing, a short hash of the original is appended so "Acme Inc" and
// "Acme_Inc" never share a key.
func Key(company string) string {
	normalized := norm.NFC.String(company)
	s := sanitize(normalized)
	if s == "" || s != normalized {
		sum := sha256.Sum256([]byte(company))
		suffix := hex.EncodeToString(sum[:])[:8]
		if s == "" {
			return suffix
		}
		return s + "-" + suffix
	}
	return s
}

// LegacyKey returns the unsuffixed key older cache files were written
// under, or "" when it is the same as Key. Legacy keys are only read,
// never written.
func LegacyKey(company string) string {
	s := sanitize(norm.NFC.String(company))
	if s == "" || s == Key(company) {
		return ""
	}
	return s
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == ' ', r == '.', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	s := strings.TrimSpace(b.String())
	s = strings.ReplaceAll(s, " ", "_")
	s = truncateRunes(s, maxKeyRunes)
	// Leading dots would make hidden files or "." / "..".
	if strings.Trim(s, ".") == "" {
		return ""
	}
	return s
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
