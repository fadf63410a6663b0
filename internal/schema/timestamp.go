package schema

import (
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow/go/v18/arrow"
)

// textualTimestampLayouts covers the naive date/time formats plus
// offset-bearing variants, so a column of RFC3339-ish values still counts
// toward ts_ok during inference.
var textualTimestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006 15:04:05",
	"2006/01/02 15:04:05",
}

// fractionalDigits returns the number of digits after the first '.' in v, or
// 0 if there is none.
func fractionalDigits(v string) int {
	dot := strings.IndexByte(v, '.')
	if dot < 0 {
		return 0
	}
	count := 0
	for i := dot + 1; i < len(v) && v[i] >= '0' && v[i] <= '9'; i++ {
		count++
	}
	return count
}

// unitFromPrecision buckets a fractional-digit count into a TimeUnit: 9 or
// more digits is nanosecond precision, 6 or more is microsecond, 3 or more
// is millisecond, otherwise second.
func unitFromPrecision(precision int) arrow.TimeUnit {
	switch {
	case precision >= 9:
		return arrow.Nanosecond
	case precision >= 6:
		return arrow.Microsecond
	case precision >= 3:
		return arrow.Millisecond
	default:
		return arrow.Second
	}
}

func detectTextualTimestampUnit(v string) (arrow.TimeUnit, bool) {
	for _, layout := range textualTimestampLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return unitFromPrecision(fractionalDigits(v)), true
		}
	}
	return 0, false
}

// unitFromEpochMagnitude buckets an integer epoch value by magnitude: below
// 1e11 is seconds, below 1e14 is milliseconds, below 1e17 is microseconds,
// otherwise nanoseconds.
func unitFromEpochMagnitude(abs int64) arrow.TimeUnit {
	switch {
	case abs < 100_000_000_000:
		return arrow.Second
	case abs < 100_000_000_000_000:
		return arrow.Millisecond
	case abs < 100_000_000_000_000_000:
		return arrow.Microsecond
	default:
		return arrow.Nanosecond
	}
}

func detectEpochTimestampUnit(v string) (arrow.TimeUnit, bool) {
	if v == "" {
		return 0, false
	}
	for i := 0; i < len(v); i++ {
		c := v[i]
		if !(c >= '0' && c <= '9') && c != '+' && c != '-' {
			return 0, false
		}
	}
	x, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	abs := x
	if abs < 0 {
		abs = -abs
	}
	return unitFromEpochMagnitude(abs), true
}

// detectTimestampUnit decides which ts_*_ok bucket a candidate value falls
// into, trying the textual layouts before the integer-epoch fallback.
func detectTimestampUnit(v string) (arrow.TimeUnit, bool) {
	if unit, ok := detectTextualTimestampUnit(v); ok {
		return unit, true
	}
	return detectEpochTimestampUnit(v)
}
