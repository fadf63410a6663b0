package parser

import (
	"testing"

	"github.com/apache/arrow/go/v18/arrow"
)

func schemaOf(fields ...arrow.Field) *arrow.Schema {
	return arrow.NewSchema(fields, nil)
}

func TestParseBlockTypedColumns(t *testing.T) {
	schema := schemaOf(
		arrow.Field{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		arrow.Field{Name: "name", Type: arrow.BinaryTypes.LargeString, Nullable: true},
		arrow.Field{Name: "active", Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
	)
	lines := []string{
		"1,alice,true",
		"2,bob,false",
		"3,,",
	}
	diag := NewDiagnostics()
	rec, err := ParseBlock(lines, schema, ',', diag)
	if err != nil {
		t.Fatalf("ParseBlock error: %v", err)
	}
	if rec.NumRows() != 3 {
		t.Fatalf("got %d rows, want 3", rec.NumRows())
	}
	if rec.NumCols() != 3 {
		t.Fatalf("got %d cols, want 3", rec.NumCols())
	}

	idCol := rec.Column(0)
	if idCol.IsNull(2) {
		t.Error("row 2 id should be non-null (value 3)")
	}

	nameCol := rec.Column(1)
	if !nameCol.IsNull(2) {
		t.Error("row 2 name should be null (empty field)")
	}

	activeCol := rec.Column(2)
	if !activeCol.IsNull(2) {
		t.Error("row 2 active should be null (empty field)")
	}
}

func TestParseBlockMalformedLineBecomesNullRow(t *testing.T) {
	schema := schemaOf(
		arrow.Field{Name: "a", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		arrow.Field{Name: "b", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	)
	lines := []string{
		"1,2",
		"\"unterminated",
		"3,4",
	}
	diag := NewDiagnostics()
	rec, err := ParseBlock(lines, schema, ',', diag)
	if err != nil {
		t.Fatalf("ParseBlock error: %v", err)
	}
	if rec.NumRows() != 3 {
		t.Fatalf("got %d rows, want 3 (malformed line still yields a null row)", rec.NumRows())
	}
	if diag.AnalysisErrors() == 0 {
		t.Error("expected at least one recorded analysis error")
	}
}

func TestParseBlockColumnMismatchIsPaddedOrTruncated(t *testing.T) {
	schema := schemaOf(
		arrow.Field{Name: "a", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		arrow.Field{Name: "b", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		arrow.Field{Name: "c", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	)
	lines := []string{
		"1,2",       // too few
		"1,2,3,4",   // too many
		"1,2,3",     // exact
	}
	diag := NewDiagnostics()
	rec, err := ParseBlock(lines, schema, ',', diag)
	if err != nil {
		t.Fatalf("ParseBlock error: %v", err)
	}
	if rec.NumRows() != 3 {
		t.Fatalf("got %d rows, want 3", rec.NumRows())
	}
	cCol := rec.Column(2)
	if !cCol.IsNull(0) {
		t.Error("row 0 column c should be null (field missing)")
	}
	if diag.AnalysisErrors() != 2 {
		t.Errorf("got %d analysis errors, want 2", diag.AnalysisErrors())
	}
}

func TestDiagnosticsSuppressesAfterTenMismatches(t *testing.T) {
	diag := NewDiagnostics()
	var shownCount, suppressionCount int
	for i := 0; i < 15; i++ {
		show, announce := diag.shouldShowColumnMismatch()
		if show {
			shownCount++
		}
		if announce {
			suppressionCount++
		}
	}
	if shownCount != 10 {
		t.Errorf("got %d shown, want 10", shownCount)
	}
	if suppressionCount != 1 {
		t.Errorf("got %d suppression announcements, want 1", suppressionCount)
	}
}
