package schema

import (
	"strings"
	"testing"

	"github.com/apache/arrow/go/v18/arrow"
)

func electAll(values []string) arrow.DataType {
	s := newColumnStats()
	for _, v := range values {
		s.Observe(v)
	}
	return s.Elect()
}

func TestElectAllNullIsLargeString(t *testing.T) {
	got := electAll([]string{"", "null", "NaN"})
	if !arrow.TypeEqual(got, arrow.BinaryTypes.LargeString) {
		t.Errorf("got %v, want LargeString", got)
	}
}

func TestElectPureIntegersBecomeInt64(t *testing.T) {
	got := electAll([]string{"1", "2", "-3", "4", "5"})
	if !arrow.TypeEqual(got, arrow.PrimitiveTypes.Int64) {
		t.Errorf("got %v, want Int64", got)
	}
}

func TestElectAllNonNegativeLargeIntegersBecomeUint64(t *testing.T) {
	big := "18446744073709551615" // math.MaxUint64
	got := electAll([]string{big, "1", "2", "3"})
	if !arrow.TypeEqual(got, arrow.PrimitiveTypes.Uint64) {
		t.Errorf("got %v, want Uint64", got)
	}
}

func TestElectMixedFloatSyntaxBecomesFloat64(t *testing.T) {
	got := electAll([]string{"1.5", "2.25", "3", "4"})
	if !arrow.TypeEqual(got, arrow.PrimitiveTypes.Float64) {
		t.Errorf("got %v, want Float64", got)
	}
}

func TestElectBooleanColumn(t *testing.T) {
	got := electAll([]string{"true", "false", "true", "yes", "no"})
	if !arrow.TypeEqual(got, arrow.FixedWidthTypes.Boolean) {
		t.Errorf("got %v, want Boolean", got)
	}
}

func TestElectDateColumn(t *testing.T) {
	got := electAll([]string{"2024-01-01", "2024-01-02", "2024-01-03"})
	if !arrow.TypeEqual(got, arrow.FixedWidthTypes.Date32) {
		t.Errorf("got %v, want Date32", got)
	}
}

func TestElectTimestampColumn(t *testing.T) {
	got := electAll([]string{"2024-01-01 10:00:00", "2024-01-02 11:00:00"})
	ts, ok := got.(*arrow.TimestampType)
	if !ok {
		t.Fatalf("got %v, want *arrow.TimestampType", got)
	}
	if ts.Unit != arrow.Second {
		t.Errorf("got unit %v, want Second", ts.Unit)
	}
}

func TestElectFreeTextFallsBackToLargeString(t *testing.T) {
	got := electAll([]string{"hello world", "another phrase", "yet more text"})
	if !arrow.TypeEqual(got, arrow.BinaryTypes.LargeString) {
		t.Errorf("got %v, want LargeString", got)
	}
}

func TestElectBelowThresholdMixedFallsBackToLargeString(t *testing.T) {
	// 5 rows, 1 non-numeric -> float ratio 0.8 < 0.98 threshold.
	got := electAll([]string{"1", "2", "3", "4", "not-a-number"})
	if !arrow.TypeEqual(got, arrow.BinaryTypes.LargeString) {
		t.Errorf("got %v, want LargeString (below threshold)", got)
	}
}

func TestElectOutOfRangeIntegerBecomesFloat64(t *testing.T) {
	// Larger than uint64 max: no integer arrow type fits.
	huge := strings.Repeat("9", 30)
	got := electAll([]string{huge, huge, huge})
	if !arrow.TypeEqual(got, arrow.PrimitiveTypes.Float64) {
		t.Errorf("got %v, want Float64 for out-of-range magnitude", got)
	}
}
