package memorial

import (
	"regexp"
	"strings"
	"time"
)

var agedSuffix = regexp.MustCompile(`\(aged.*\)`)
var yearOnly = regexp.MustCompile(`^\d{4}$`)
var canonicalDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// NormalizeDate turns the heterogeneous date text found on memorial
// pages into canonical form. The fallback order is load-bearing:
// callers get day precision when the source has it and degrade to year
// precision ("2006-00-00") instead of losing the whole field.
//
//	"26 May 1928 (aged 81)" -> "1928-05-26"
//	"1928"                  -> "1928-00-00"
//	"Abt. 1928"             -> "1928-00-00"
//	anything else           -> ""
//
// Already-canonical input is returned unchanged.
func NormalizeDate(text string) string {
	text = strings.TrimSpace(agedSuffix.ReplaceAllString(text, ""))
	if text == "" {
		return ""
	}

	if canonicalDate.MatchString(text) {
		return text
	}

	if t, err := time.Parse("2 Jan 2006", text); err == nil {
		return t.Format("2006-01-02")
	}

	if yearOnly.MatchString(text) {
		return text + "-00-00"
	}

	if rest, ok := cutAboutMarker(text); ok && yearOnly.MatchString(rest) {
		return rest + "-00-00"
	}

	return ""
}

func cutAboutMarker(text string) (string, bool) {
	if !strings.HasPrefix(strings.ToLower(text), "abt.") {
		return "", false
	}
	return strings.TrimSpace(text[len("abt."):]), true
}
