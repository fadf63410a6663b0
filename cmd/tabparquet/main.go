// Command tabparquet converts a delimited tabular file (or captured
// stdin) into a columnar Parquet file via schema inference followed by a
// parallel typed streaming pass.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/colbuild/tabparquet/internal/cliutil"
	"github.com/colbuild/tabparquet/internal/pipeline"
	"github.com/colbuild/tabparquet/internal/schema"
	"github.com/colbuild/tabparquet/internal/text"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin *os.File, stdout, stderr *os.File) int {
	fs := flag.NewFlagSet("tabparquet", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fullScan := fs.Bool("full-scan", false, "scan every row during schema inference instead of sampling")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	logger := cliutil.NewLogger(stderr, cliutil.LevelFromEnv())

	if fs.NArg() < 1 {
		fmt.Fprintln(stderr, "usage: tabparquet [--full-scan] <input-file|->")
		return 1
	}
	arg := fs.Arg(0)

	var inputPath string
	var fromStdin bool
	if arg == "-" {
		if cliutil.IsInteractive(stdin) {
			fmt.Fprintln(stderr, "usage: tabparquet [--full-scan] <input-file|->")
			return 1
		}
		path, err := cliutil.CaptureStdin(stdin)
		if err != nil {
			logger.Fatalf("%v", err)
			return 1
		}
		inputPath = path
		fromStdin = true
	} else {
		inputPath = arg
	}

	outPath := cliutil.OutputPath(inputPath, fromStdin)

	stats, err := convert(logger, inputPath, outPath, *fullScan)
	if err != nil {
		logger.Fatalf("conversion %s -> %s failed: %v", inputPath, outPath, err)
		return 1
	}

	rowsPerSec := float64(0)
	usPerRow := float64(0)
	if stats.Elapsed > 0 {
		rowsPerSec = float64(stats.RowsWritten) / stats.Elapsed.Seconds()
	}
	if stats.RowsWritten > 0 {
		usPerRow = float64(stats.Elapsed.Microseconds()) / float64(stats.RowsWritten)
	}
	fmt.Fprintf(stdout, "wrote %s: %d rows in %s (%.1f us/row, %.0f rows/s)\n",
		outPath, stats.RowsWritten, stats.Elapsed.Round(time.Millisecond), usPerRow, rowsPerSec)
	if stats.AnalysisErrors > 0 {
		fmt.Fprintf(stderr, "warning: %d recoverable row-level issue(s) encountered\n", stats.AnalysisErrors)
	}
	return 0
}

func convert(logger *cliutil.Logger, inputPath, outPath string, fullScan bool) (pipeline.Stats, error) {
	delimiterReader, err := cliutil.OpenInput(inputPath)
	if err != nil {
		return pipeline.Stats{}, err
	}
	delimiter, err := text.DetectDelimiter(delimiterReader)
	_ = delimiterReader.Close()
	if err != nil {
		return pipeline.Stats{}, fmt.Errorf("detect delimiter: %w", err)
	}

	logger.Infof("inferring schema (full scan: %v)", fullScan)
	inferReader, err := cliutil.OpenInput(inputPath)
	if err != nil {
		return pipeline.Stats{}, err
	}
	inferredSchema, err := schema.InferSchema(inferReader, delimiter, fullScan)
	_ = inferReader.Close()
	if err != nil {
		return pipeline.Stats{}, fmt.Errorf("infer schema: %w", err)
	}

	streamReader, err := cliutil.OpenInput(inputPath)
	if err != nil {
		return pipeline.Stats{}, err
	}
	defer streamReader.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return pipeline.Stats{}, fmt.Errorf("create %s: %w", outPath, err)
	}
	defer out.Close()

	logger.Infof("converting to %s", outPath)
	return pipeline.Run(context.Background(), streamReader, out, inferredSchema, pipeline.Options{
		Delimiter: delimiter,
		ShowBar:   cliutil.IsInteractive(os.Stderr),
	})
}
