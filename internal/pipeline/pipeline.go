// Package pipeline drives the three-stage conversion: a producer reads
// ordered blocks of lines, a worker pool parses each block into a typed
// arrow.Record, and a reorder-writer reassembles file order and streams row
// groups into a Parquet file.
package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/compress"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/schollz/progressbar/v3"

	"github.com/colbuild/tabparquet/internal/parser"
)

const (
	blockQueueCapacity = 8
	batchQueueCapacity = 8
	slidingWindow      = 2 * time.Second
	tickInterval       = 200 * time.Millisecond
)

// BlockSize returns the line count per block for a schema with numCols
// columns: narrower rows batch bigger, wide rows batch smaller, trading
// per-block overhead against peak memory.
func BlockSize(numCols int) int {
	switch {
	case numCols <= 20:
		return 250_000
	case numCols <= 50:
		return 150_000
	default:
		return 5_000
	}
}

type block struct {
	index int64
	lines []string
}

type batch struct {
	index  int64
	record arrow.Record
	err    error
}

// Stats reports what the run produced, for the CLI's completion summary.
type Stats struct {
	RowsWritten    int64
	AnalysisErrors int64
	Elapsed        time.Duration
}

// Options configures one conversion run.
type Options struct {
	Delimiter    byte
	ShowBar      bool
	RowCountHint int64 // 0 if unknown; drives a determinate vs. spinner bar
}

// Run streams r (already header-consumed by the caller is NOT assumed —
// Run itself reads and discards the header line) against schema, writing a
// Parquet file to w. Workers recover their own panics and surface them as
// a returned error rather than crashing the process.
func Run(ctx context.Context, r io.Reader, w io.Writer, schema *arrow.Schema, opts Options) (Stats, error) {
	start := time.Now()
	diag := parser.NewDiagnostics()

	reader := bufio.NewReaderSize(r, 1<<20)
	if _, err := reader.ReadString('\n'); err != nil && err != io.EOF {
		return Stats{}, fmt.Errorf("read header: %w", err)
	}

	numCols := len(schema.Fields())
	blockSize := BlockSize(numCols)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	blocks := make(chan block, blockQueueCapacity)
	batches := make(chan batch, batchQueueCapacity)

	producerErrCh := make(chan error, 1)
	go func() {
		defer close(blocks)
		producerErrCh <- produce(runCtx, reader, blockSize, blocks)
	}()

	workers := runtime.GOMAXPROCS(0)
	var workerWG sync.WaitGroup
	workerWG.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer workerWG.Done()
			runWorker(runCtx, blocks, batches, schema, opts.Delimiter, diag)
		}()
	}
	go func() {
		workerWG.Wait()
		close(batches)
	}()

	bar := newBar(opts.RowCountHint, opts.ShowBar)
	rowCounter := make(chan int64, 1)
	tickerDone := make(chan struct{})
	go runTicker(runCtx, bar, rowCounter, tickerDone)

	written, writeErr := writeOrdered(runCtx, w, schema, batches, blockSize, rowCounter)
	close(rowCounter)
	<-tickerDone
	if bar != nil {
		_ = bar.Finish()
	}
	cancel()

	if writeErr != nil {
		return Stats{}, writeErr
	}
	if producerErr := <-producerErrCh; producerErr != nil {
		return Stats{}, producerErr
	}

	return Stats{
		RowsWritten:    written,
		AnalysisErrors: diag.AnalysisErrors(),
		Elapsed:        time.Since(start),
	}, nil
}

func produce(ctx context.Context, r *bufio.Reader, blockSize int, out chan<- block) error {
	var index int64
	lines := make([]string, 0, blockSize)

	flush := func() error {
		if len(lines) == 0 {
			return nil
		}
		select {
		case out <- block{index: index, lines: lines}:
			index++
			lines = make([]string, 0, blockSize)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			if line[len(line)-1] == '\n' {
				line = line[:len(line)-1]
			}
			if len(line) > 0 && line[len(line)-1] == '\r' {
				line = line[:len(line)-1]
			}
			lines = append(lines, line)
			if len(lines) >= blockSize {
				if ferr := flush(); ferr != nil {
					return ferr
				}
			}
		}
		if err == io.EOF {
			return flush()
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
	}
}

func runWorker(ctx context.Context, blocks <-chan block, out chan<- batch, schema *arrow.Schema, delimiter byte, diag *parser.Diagnostics) {
	for b := range blocks {
		result := parseBlockRecovered(b, schema, delimiter, diag)
		select {
		case out <- result:
		case <-ctx.Done():
			return
		}
	}
}

// parseBlockRecovered calls parser.ParseBlock, converting any panic into a
// tagged error batch instead of letting it crash the process (the
// worker-panic redesign: see DESIGN.md).
func parseBlockRecovered(b block, schema *arrow.Schema, delimiter byte, diag *parser.Diagnostics) (result batch) {
	defer func() {
		if r := recover(); r != nil {
			result = batch{index: b.index, err: fmt.Errorf("worker panic on block %d: %v", b.index, r)}
		}
	}()

	record, err := parser.ParseBlock(b.lines, schema, delimiter, diag)
	if err != nil {
		return batch{index: b.index, err: err}
	}
	return batch{index: b.index, record: record}
}

func writeOrdered(ctx context.Context, w io.Writer, schema *arrow.Schema, batches <-chan batch, blockSize int, rowCounter chan<- int64) (int64, error) {
	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Zstd),
		parquet.WithCompressionLevel(5),
		parquet.WithMaxRowGroupLength(int64(blockSize)),
	)
	fileWriter, err := pqarrow.NewFileWriter(schema, w, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return 0, fmt.Errorf("open parquet writer: %w", err)
	}

	pending := make(map[int64]batch)
	var next int64
	var written int64

	drain := func(b batch) error {
		if b.record == nil {
			return nil
		}
		defer b.record.Release()
		if err := fileWriter.Write(b.record); err != nil {
			return fmt.Errorf("write row group: %w", err)
		}
		written += b.record.NumRows()
		select {
		case rowCounter <- written:
		default:
		}
		return nil
	}

	fail := func(err error) (int64, error) {
		_ = fileWriter.Close()
		return written, err
	}

	for b := range batches {
		if b.err != nil {
			return fail(b.err)
		}
		pending[b.index] = b
		for {
			ready, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			if err := drain(ready); err != nil {
				return fail(err)
			}
			next++
		}
	}

	if len(pending) > 0 {
		return fail(fmt.Errorf("writer finished with %d out-of-order batches undelivered", len(pending)))
	}

	if err := fileWriter.Close(); err != nil {
		return written, fmt.Errorf("close parquet writer: %w", err)
	}
	return written, nil
}

func newBar(hint int64, show bool) *progressbar.ProgressBar {
	if !show {
		return nil
	}
	opts := []progressbar.Option{
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(tickInterval),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
	}
	if hint > 0 {
		opts = append(opts, progressbar.OptionSetPredictTime(true))
		return progressbar.NewOptions64(hint, opts...)
	}
	opts = append(opts, progressbar.OptionSpinnerType(14))
	return progressbar.NewOptions64(-1, opts...)
}

// runTicker samples rowCounter every tickInterval, keeping a
// slidingWindow-long history of (time, rows) pairs to compute a rolling
// rows/s rate, and advances the bar to the latest absolute row count.
func runTicker(ctx context.Context, bar *progressbar.ProgressBar, rowCounter <-chan int64, done chan<- struct{}) {
	defer close(done)
	if bar == nil {
		for range rowCounter {
		}
		return
	}

	type sample struct {
		at   time.Time
		rows int64
	}
	var window []sample
	var latest int64

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case rows, ok := <-rowCounter:
			if !ok {
				return
			}
			latest = rows
		case now := <-ticker.C:
			window = append(window, sample{at: now, rows: latest})
			cutoff := now.Add(-slidingWindow)
			trimmed := window[:0]
			for _, s := range window {
				if s.at.After(cutoff) {
					trimmed = append(trimmed, s)
				}
			}
			window = trimmed

			if len(window) >= 2 {
				oldest := window[0]
				elapsed := now.Sub(oldest.at).Seconds()
				if elapsed > 0 {
					rate := float64(latest-oldest.rows) / elapsed
					bar.Describe(fmt.Sprintf("%.0f rows/s", rate))
				}
			}
			_ = bar.Set64(latest)
		case <-ctx.Done():
			return
		}
	}
}
