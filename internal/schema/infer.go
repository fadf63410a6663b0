package schema

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"

	"github.com/apache/arrow/go/v18/arrow"
)

// MaxSample bounds the number of data rows observed during inference unless
// a full scan is requested.
const MaxSample = 1000

// reportEvery controls how often a full-scan progress line is logged.
const reportEvery = 100_000

// InferSchema samples rows from r (stopping after MaxSample unless
// fullScan is set) and elects a lattice type per column by thresholded
// majority voting. Every elected field is rewritten nullable, matching the
// pipeline boundary requirement that all fields are nullable regardless of
// what the inferer decided.
func InferSchema(r io.Reader, delimiter byte, fullScan bool) (*arrow.Schema, error) {
	reader := csv.NewReader(r)
	reader.Comma = rune(delimiter)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	names := make([]string, len(header))
	copy(names, header)

	stats := make([]*columnStats, len(names))
	for i := range stats {
		stats[i] = newColumnStats()
	}

	var rowsRead int64
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed records are skipped silently and do not count
			// against the sample budget.
			continue
		}

		rowsRead++
		for i := range stats {
			var value string
			if i < len(record) {
				value = record[i]
			}
			stats[i].Observe(value)
		}

		if !fullScan && rowsRead >= MaxSample {
			break
		}
		if fullScan && rowsRead%reportEvery == 0 {
			log.Printf("[INFO] full-scan inference: %d rows analyzed", rowsRead)
		}
	}

	fields := make([]arrow.Field, len(names))
	for i, name := range names {
		fields[i] = arrow.Field{Name: name, Type: stats[i].Elect(), Nullable: true}
	}
	return arrow.NewSchema(fields, nil), nil
}
