// Package parser turns one ordered block of raw input lines into a typed
// columnar arrow.Record, following the schema's elected type per field and
// falling back to null on any per-cell coercion failure.
package parser

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/big"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"

	"github.com/colbuild/tabparquet/internal/text"
)

var int64Bounds = [2]*big.Int{big.NewInt(-1 << 63), big.NewInt(1<<63 - 1)}
var uint64UpperBound = new(big.Int).SetUint64(^uint64(0))

// ParseBlock parses lines (each one raw input line) against schema and
// delimiter, returning a record with exactly len(lines) rows. Parse errors
// and column-count mismatches are reported to diag and never abort the
// block: a parse error produces a null-filled row, a short row has its
// missing columns null, and extra fields of a long row are discarded.
func ParseBlock(lines []string, schema *arrow.Schema, delimiter byte, diag *Diagnostics) (arrow.Record, error) {
	numCols := len(schema.Fields())
	columnValues := make([][]string, numCols)
	for i := range columnValues {
		columnValues[i] = make([]string, len(lines))
	}

	for lineIdx, line := range lines {
		fields, ok := parseLine(line, delimiter)
		if !ok {
			diag.recordAnalysisError()
			fmt.Fprintf(os.Stderr, "[parse error] line=%d content=%q\n", lineIdx, line)
			continue // all columns stay "" -> null after coercion
		}

		if len(fields) != numCols {
			diag.recordAnalysisError()
			show, announceSuppression := diag.shouldShowColumnMismatch()
			if show {
				fmt.Fprintf(os.Stderr, "[column mismatch] line=%d expected=%d found=%d content=%q\n",
					lineIdx, numCols, len(fields), line)
			} else if announceSuppression {
				fmt.Fprintln(os.Stderr, "[warning] additional column-count mismatches suppressed")
			}
		}

		for i := 0; i < numCols; i++ {
			if i < len(fields) {
				columnValues[i][lineIdx] = fields[i]
			}
		}
	}

	mem := memory.NewGoAllocator()
	columns := make([]arrow.Array, numCols)
	var wg sync.WaitGroup
	wg.Add(numCols)
	for i, field := range schema.Fields() {
		go func(i int, field arrow.Field) {
			defer wg.Done()
			columns[i] = buildColumn(mem, field.Type, columnValues[i])
		}(i, field)
	}
	wg.Wait()

	return array.NewRecord(schema, columns, int64(len(lines))), nil
}

// parseLine parses a single raw line as one CSV record. Each line gets its
// own reader so a malformed line can never desynchronize the lines after
// it, which is the only deliberate departure from re-joining the whole
// block into a single reader (see DESIGN.md).
func parseLine(line string, delimiter byte) ([]string, bool) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.Comma = rune(delimiter)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	record, err := reader.Read()
	if err != nil {
		return nil, false
	}
	return record, true
}

// buildColumn constructs one typed arrow.Array from raw cell strings: a
// null-token cell is always null; otherwise a cell that fails to parse for
// its column's type is null.
func buildColumn(mem memory.Allocator, dt arrow.DataType, values []string) arrow.Array {
	builder := array.NewBuilder(mem, dt)
	defer builder.Release()

	switch b := builder.(type) {
	case *array.BooleanBuilder:
		for _, v := range values {
			appendBool(b, v)
		}
	case *array.Int64Builder:
		for _, v := range values {
			appendInt64(b, v)
		}
	case *array.Uint64Builder:
		for _, v := range values {
			appendUint64(b, v)
		}
	case *array.Float64Builder:
		for _, v := range values {
			appendFloat64(b, v)
		}
	case *array.Date32Builder:
		for _, v := range values {
			appendDate32(b, v)
		}
	case *array.TimestampBuilder:
		unit := dt.(*arrow.TimestampType).Unit
		for _, v := range values {
			appendTimestamp(b, unit, v)
		}
	case *array.StringBuilder:
		for _, v := range values {
			appendUtf8(b, v)
		}
	case *array.LargeStringBuilder:
		for _, v := range values {
			appendLargeUtf8(b, v)
		}
	case *array.BinaryBuilder:
		for _, v := range values {
			appendBinary(b, v)
		}
	case *array.LargeBinaryBuilder:
		for _, v := range values {
			appendLargeBinary(b, v)
		}
	default:
		// Unrecognized types fall back to LargeUtf8.
		fallback := array.NewBuilder(mem, arrow.BinaryTypes.LargeString).(*array.LargeStringBuilder)
		defer fallback.Release()
		for _, v := range values {
			appendLargeUtf8(fallback, v)
		}
		return fallback.NewArray()
	}
	return builder.NewArray()
}

func appendBool(b *array.BooleanBuilder, v string) {
	if text.IsNullToken(v) {
		b.AppendNull()
		return
	}
	val, ok := text.ParseBool(v)
	if !ok {
		b.AppendNull()
		return
	}
	b.Append(val)
}

func appendInt64(b *array.Int64Builder, v string) {
	if text.IsNullToken(v) {
		b.AppendNull()
		return
	}
	i, ok := new(big.Int).SetString(strings.TrimSpace(v), 10)
	if !ok || i.Cmp(int64Bounds[0]) < 0 || i.Cmp(int64Bounds[1]) > 0 {
		b.AppendNull()
		return
	}
	b.Append(i.Int64())
}

func appendUint64(b *array.Uint64Builder, v string) {
	if text.IsNullToken(v) {
		b.AppendNull()
		return
	}
	i, ok := new(big.Int).SetString(strings.TrimSpace(v), 10)
	if !ok || i.Sign() < 0 || i.Cmp(uint64UpperBound) > 0 {
		b.AppendNull()
		return
	}
	b.Append(i.Uint64())
}

func appendFloat64(b *array.Float64Builder, v string) {
	if text.IsNullToken(v) {
		b.AppendNull()
		return
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || (f != f) || isInf(f) {
		b.AppendNull()
		return
	}
	b.Append(f)
}

func isInf(f float64) bool {
	return math.IsInf(f, 0)
}

func appendDate32(b *array.Date32Builder, v string) {
	if text.IsNullToken(v) {
		b.AppendNull()
		return
	}
	d, ok := text.ParseDate32(v)
	if !ok {
		b.AppendNull()
		return
	}
	b.Append(arrow.Date32(d))
}

func appendTimestamp(b *array.TimestampBuilder, unit arrow.TimeUnit, v string) {
	if text.IsNullToken(v) {
		b.AppendNull()
		return
	}
	ms, ok := text.ParseTimestampMillis(v)
	if !ok {
		b.AppendNull()
		return
	}
	var scaled int64
	switch unit {
	case arrow.Second:
		scaled = ms / 1000
	case arrow.Millisecond:
		scaled = ms
	case arrow.Microsecond:
		scaled = ms * 1000
	case arrow.Nanosecond:
		scaled = ms * 1_000_000
	}
	b.Append(arrow.Timestamp(scaled))
}

func appendUtf8(b *array.StringBuilder, v string) {
	if text.IsNullToken(v) {
		b.AppendNull()
		return
	}
	b.Append(v)
}

func appendLargeUtf8(b *array.LargeStringBuilder, v string) {
	if text.IsNullToken(v) {
		b.AppendNull()
		return
	}
	b.Append(v)
}

func appendBinary(b *array.BinaryBuilder, v string) {
	if text.IsNullToken(v) {
		b.AppendNull()
		return
	}
	b.Append([]byte(v))
}

func appendLargeBinary(b *array.LargeBinaryBuilder, v string) {
	if text.IsNullToken(v) {
		b.AppendNull()
		return
	}
	b.Append([]byte(v))
}
