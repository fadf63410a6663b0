// Package text implements the small set of textual parsing primitives shared
// by schema inference and block parsing: null-token detection, boolean
// parsing, date/timestamp parsing, and delimiter detection.
package text

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// IsNullToken reports whether v represents a missing value: empty after
// trimming, or case-insensitively one of null/none/nan/n/a/na.
func IsNullToken(v string) bool {
	t := strings.TrimSpace(v)
	if t == "" {
		return true
	}
	switch strings.ToLower(t) {
	case "null", "none", "nan", "n/a", "na":
		return true
	}
	return false
}

// ParseBool parses a truthy/falsy token. The second return value reports
// whether v matched any recognized token.
func ParseBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "t", "y", "yes", "on":
		return true, true
	case "false", "0", "f", "n", "no", "off":
		return false, true
	}
	return false, false
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
}

// ParseDate32 parses a date string using, in priority order, YYYY-MM-DD,
// DD/MM/YYYY, then MM/DD/YYYY, returning the signed day count since
// 1970-01-01 constrained to a 32-bit range.
func ParseDate32(v string) (int32, bool) {
	t := strings.TrimSpace(v)
	if t == "" {
		return 0, false
	}
	for _, layout := range dateLayouts {
		d, err := time.Parse(layout, t)
		if err != nil {
			continue
		}
		days := d.Unix() / 86400
		if days < math.MinInt32 || days > math.MaxInt32 {
			return 0, false
		}
		return int32(days), true
	}
	return 0, false
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006 15:04:05",
	"2006/01/02 15:04:05",
}

// ParseTimestampMillis parses a timestamp string into Unix milliseconds. It
// tries the textual layouts above in order, then falls back to interpreting
// an integer value as an epoch in seconds, milliseconds, microseconds, or
// nanoseconds based on its magnitude.
func ParseTimestampMillis(v string) (int64, bool) {
	t := strings.TrimSpace(v)
	if t == "" {
		return 0, false
	}

	for _, layout := range timestampLayouts {
		parsed, err := time.ParseInLocation(layout, t, time.UTC)
		if err != nil {
			continue
		}
		return parsed.UnixMilli(), true
	}

	x, err := strconv.ParseInt(t, 10, 64)
	if err != nil {
		return 0, false
	}
	switch {
	case x >= 1_000_000_000 && x < 4_000_000_000:
		return x * 1000, true
	case x >= 1_000_000_000_000 && x < 4_000_000_000_000:
		return x, true
	case x >= 1_000_000_000_000_000 && x < 4_000_000_000_000_000:
		return x / 1000, true
	case x >= 1_000_000_000_000_000_000:
		return x / 1_000_000, true
	}
	return 0, false
}

// delimiterCandidates lists the candidate delimiters in the priority order
// used to break count ties.
var delimiterCandidates = []byte{',', ';', '\t', '|', ':', ' '}

// DetectDelimiter reads the first line from r and returns the candidate byte
// with the most occurrences, defaulting to ',' when there is no first line
// or no candidate occurs at all. Ties resolve to the earlier candidate in
// delimiterCandidates.
func DetectDelimiter(r io.Reader) (byte, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var firstLine string
	if scanner.Scan() {
		firstLine = scanner.Text()
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}

	best := byte(',')
	bestCount := -1
	for _, cand := range delimiterCandidates {
		count := strings.Count(firstLine, string(cand))
		if count > bestCount {
			bestCount = count
			best = cand
		}
	}
	return best, nil
}
