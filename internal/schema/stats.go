// Package schema implements one-pass statistical schema inference: sampling
// input rows, accumulating per-column statistics, and electing a column type
// from the Arrow type lattice by thresholded majority voting.
package schema

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"

	"github.com/colbuild/tabparquet/internal/text"
)

var (
	int64Min  = big.NewInt(math.MinInt64)
	int64Max  = big.NewInt(math.MaxInt64)
	uint64Max = new(big.Int).SetUint64(math.MaxUint64)
)

// columnStats accumulates observations for one column during inference. It
// is created empty, mutated by Observe, and consumed once by Elect.
type columnStats struct {
	nonNull int64

	boolOK int64
	dateOK int64

	tsSecondOK      int64
	tsMillisecondOK int64
	tsMicrosecondOK int64
	tsNanosecondOK  int64

	floatOK         int64
	floatSyntaxSeen bool
	integerOK       int64
	negativeInteger int64

	minInt *big.Int
	maxInt *big.Int

	maxLen int
}

func newColumnStats() *columnStats {
	return &columnStats{}
}

// Observe updates the running statistics with one non-null-tested textual
// value. Null tokens are ignored entirely (they never count toward
// non-null, nor toward any of the *_ok counters).
func (s *columnStats) Observe(raw string) {
	if text.IsNullToken(raw) {
		return
	}

	s.nonNull++
	v := strings.TrimSpace(raw)
	if len(v) > s.maxLen {
		s.maxLen = len(v)
	}

	if _, ok := text.ParseBool(v); ok {
		s.boolOK++
	}

	if _, ok := text.ParseDate32(v); ok {
		s.dateOK++
	}

	if len(v) >= 8 && containsAnyByte(v, '-', ':', 'T') {
		if unit, ok := detectTimestampUnit(v); ok {
			switch unit {
			case arrow.Second:
				s.tsSecondOK++
			case arrow.Millisecond:
				s.tsMillisecondOK++
			case arrow.Microsecond:
				s.tsMicrosecondOK++
			case arrow.Nanosecond:
				s.tsNanosecondOK++
			}
		}
	}

	if _, err := strconv.ParseFloat(v, 64); err == nil {
		s.floatOK++
		if strings.ContainsAny(v, ".eE") {
			s.floatSyntaxSeen = true
		}
	}

	if i, ok := new(big.Int).SetString(v, 10); ok {
		s.integerOK++
		if i.Sign() < 0 {
			s.negativeInteger++
		}
		if s.minInt == nil || i.Cmp(s.minInt) < 0 {
			s.minInt = i
		}
		if s.maxInt == nil || i.Cmp(s.maxInt) > 0 {
			s.maxInt = i
		}
	}
}

func containsAnyByte(s string, chars ...byte) bool {
	for i := 0; i < len(s); i++ {
		for _, c := range chars {
			if s[i] == c {
				return true
			}
		}
	}
	return false
}

func ratio(count, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}

// bestTimestampUnit returns the ts_*_ok bucket with the largest count,
// breaking ties toward Millisecond.
func (s *columnStats) bestTimestampUnit() arrow.TimeUnit {
	best := arrow.Millisecond
	bestCount := s.tsMillisecondOK
	candidates := []struct {
		unit  arrow.TimeUnit
		count int64
	}{
		{arrow.Second, s.tsSecondOK},
		{arrow.Millisecond, s.tsMillisecondOK},
		{arrow.Microsecond, s.tsMicrosecondOK},
		{arrow.Nanosecond, s.tsNanosecondOK},
	}
	for _, c := range candidates {
		if c.count > bestCount {
			bestCount = c.count
			best = c.unit
		}
	}
	return best
}

// Elect maps the accumulated statistics to a type from the lattice, trying
// timestamp, then date, then boolean, then the float/integer family, in
// that order, before falling back to LargeString.
func (s *columnStats) Elect() arrow.DataType {
	if s.nonNull == 0 {
		return arrow.BinaryTypes.LargeString
	}

	tsTotal := s.tsSecondOK + s.tsMillisecondOK + s.tsMicrosecondOK + s.tsNanosecondOK

	if ratio(tsTotal, s.nonNull) >= 0.995 {
		return &arrow.TimestampType{Unit: s.bestTimestampUnit()}
	}

	if ratio(s.dateOK, s.nonNull) >= 0.995 {
		return arrow.FixedWidthTypes.Date32
	}

	if ratio(s.boolOK, s.nonNull) >= 0.995 {
		return arrow.FixedWidthTypes.Boolean
	}

	if ratio(s.floatOK, s.nonNull) >= 0.98 {
		if s.floatSyntaxSeen {
			return arrow.PrimitiveTypes.Float64
		}

		if ratio(s.integerOK, s.nonNull) >= 0.98 {
			negRatio := ratio(s.negativeInteger, max64(s.integerOK, 1))
			minVal := s.minInt
			maxVal := s.maxInt

			if minVal.Cmp(int64Min) < 0 || maxVal.Cmp(uint64Max) > 0 {
				return arrow.PrimitiveTypes.Float64
			}

			if minVal.Sign() >= 0 && maxVal.Cmp(uint64Max) <= 0 {
				if maxVal.Cmp(int64Max) > 0 || negRatio < 0.005 {
					return arrow.PrimitiveTypes.Uint64
				}
			}

			if minVal.Cmp(int64Min) >= 0 && maxVal.Cmp(int64Max) <= 0 {
				return arrow.PrimitiveTypes.Int64
			}

			return arrow.PrimitiveTypes.Float64
		}

		return arrow.PrimitiveTypes.Float64
	}

	return arrow.BinaryTypes.LargeString
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
