/*
	dates package wraps a permissive, multi-format date/time parser with the
	Spanish-language normalization the collected sites need. Callers treat a
	returned error as "unparseable" and fall back to their own policy; the
	package never panics on malformed input.
*/

package dates

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// spanishMonths maps full and abbreviated Spanish month names to their
// English equivalents so the underlying parser can resolve them.
var spanishMonths = map[string]string{
	"enero":      "january",
	"febrero":    "february",
	"marzo":      "march",
	"abril":      "april",
	"mayo":       "may",
	"junio":      "june",
	"julio":      "july",
	"agosto":     "august",
	"septiembre": "september",
	"setiembre":  "september",
	"octubre":    "october",
	"noviembre":  "november",
	"diciembre":  "december",
	"ene":        "jan",
	"abr":        "apr",
	"ago":        "aug",
	"sept":       "sep",
	"set":        "sep",
	"dic":        "dec",
}

// spanishDays only need to be removed: "lunes, 3 de marzo de 2025" parses
// fine once the day name and connectors are gone.
var spanishDays = []string{
	"lunes", "martes", "miércoles", "miercoles", "jueves",
	"viernes", "sábado", "sabado", "domingo",
}

var (
	connectorRegex  = regexp.MustCompile(`\b(de|del)\b`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
	wordRegex       = regexp.MustCompile(`[a-záéíóúñ]+\.?`)
)

// Parse attempts to interpret raw as a date or timestamp in any of the
// formats the collected sites use, including Spanish textual dates. It
// returns an error when raw cannot be interpreted as a date.
func Parse(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("dates: empty input")
	}

	// Well-formed inputs (ISO timestamps, numeric dates) parse as-is; the
	// Spanish normalization pass is only a fallback.
	if t, err := dateparse.ParseAny(trimmed); err == nil {
		return t, nil
	}

	t, err := dateparse.ParseAny(normalize(trimmed))
	if err != nil {
		return time.Time{}, fmt.Errorf("dates: unparseable input %q: %w", raw, err)
	}

	return t, nil
}

// ParseISO returns the ISO-8601 rendering of raw, or an error when raw is
// unparseable.
func ParseISO(raw string) (string, error) {
	t, err := Parse(raw)
	if err != nil {
		return "", err
	}

	return t.Format(time.RFC3339), nil
}

// normalize lowercases the input, drops Spanish day names and "de"/"del"
// connectors and translates Spanish month names so the result reads as an
// English date expression.
func normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	s = strings.ReplaceAll(s, ",", " ")
	s = connectorRegex.ReplaceAllString(s, " ")

	s = wordRegex.ReplaceAllStringFunc(s, func(word string) string {
		trimmed := strings.TrimSuffix(word, ".")

		for _, day := range spanishDays {
			if trimmed == day {
				return " "
			}
		}

		if month, ok := spanishMonths[trimmed]; ok {
			return month
		}

		return word
	})

	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}
