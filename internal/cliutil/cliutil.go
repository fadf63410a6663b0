// Package cliutil holds the boundary glue shared by cmd/tabparquet:
// leveled/colorized logging, input-path resolution (including
// transparent .gz decompression and stdin capture), and output-path
// derivation.
package cliutil

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/pgzip"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Level is a logging verbosity, ordered low to high.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

func levelFromString(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// LevelFromEnv reads LOG_LEVEL, defaulting to info when unset.
func LevelFromEnv() Level {
	v, ok := os.LookupEnv("LOG_LEVEL")
	if !ok {
		return LevelInfo
	}
	return levelFromString(v)
}

// Logger wraps the standard library log package with a level gate and
// TTY-gated ANSI coloring for single-line stderr diagnostics.
type Logger struct {
	level   Level
	std     *log.Logger
	colored bool
}

// NewLogger builds a Logger writing to w (stderr in normal operation).
// Coloring is enabled only when w is a TTY, using go-colorable to keep
// Windows consoles ANSI-safe.
func NewLogger(w io.Writer, level Level) *Logger {
	colored := false
	out := w
	if f, ok := w.(*os.File); ok {
		if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
			colored = true
			out = colorable.NewColorable(f)
		}
	}
	return &Logger{
		level:   level,
		std:     log.New(out, "", log.Ltime),
		colored: colored,
	}
}

func (l *Logger) paint(code, format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	if !l.colored {
		return msg
	}
	return "\x1b[" + code + "m" + msg + "\x1b[0m"
}

func (l *Logger) Debugf(format string, args ...any) {
	if l.level < LevelDebug {
		return
	}
	l.std.Print(l.paint("90", "[DEBUG] "+format, args...))
}

func (l *Logger) Infof(format string, args ...any) {
	if l.level < LevelInfo {
		return
	}
	l.std.Print(l.paint("36", "[INFO] "+format, args...))
}

func (l *Logger) Warnf(format string, args ...any) {
	if l.level < LevelWarn {
		return
	}
	l.std.Print(l.paint("33", "[ATTENTION] "+format, args...))
}

func (l *Logger) OK(format string, args ...any) {
	l.std.Print(l.paint("32", "[OK] "+format, args...))
}

// Fatalf prints a single formatted diagnostic to the logger's writer and
// exits the process with status 1.
func (l *Logger) Fatalf(format string, args ...any) {
	l.std.Print(l.paint("31", "[ATTENTION] "+format, args...))
	os.Exit(1)
}

// OpenInput opens path for reading, transparently inflating it through
// klauspost/pgzip when the name ends in ".gz".
func OpenInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := pgzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open gzip %s: %w", path, err)
	}
	return gzipReadCloser{gz: gz, file: f}, nil
}

type gzipReadCloser struct {
	gz   *pgzip.Reader
	file *os.File
}

func (g gzipReadCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g gzipReadCloser) Close() error {
	_ = g.gz.Close()
	return g.file.Close()
}

// CaptureStdin copies stdin to a temporary file and returns its path. The
// file is deliberately left on disk for the process lifetime with no
// deferred cleanup.
func CaptureStdin(stdin io.Reader) (string, error) {
	tmp, err := os.CreateTemp("", "tabparquet-stdin-*")
	if err != nil {
		return "", fmt.Errorf("create stdin capture file: %w", err)
	}
	defer tmp.Close()

	n, err := io.Copy(tmp, stdin)
	if err != nil {
		return "", fmt.Errorf("capture stdin: %w", err)
	}
	if n == 0 {
		return "", fmt.Errorf("stdin is empty")
	}
	return tmp.Name(), nil
}

// OutputPath derives D/S.parquet for a file input (D the parent directory
// or "." when input has none, S the file stem with its extension
// stripped), or "./stdin.parquet" when fromStdin is set.
func OutputPath(inputPath string, fromStdin bool) string {
	if fromStdin {
		return filepath.Join(".", "stdin.parquet")
	}
	dir := filepath.Dir(inputPath)
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if strings.HasSuffix(strings.ToLower(base), ".gz") {
		stem = strings.TrimSuffix(stem, filepath.Ext(stem))
	}
	return filepath.Join(dir, stem+".parquet")
}

// IsInteractive reports whether f is attached to a terminal, gating the
// "- on an attached terminal" rejection in cmd/tabparquet.
func IsInteractive(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
