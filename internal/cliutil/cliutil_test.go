package cliutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLevelFromEnv(t *testing.T) {
	if _, ok := os.LookupEnv("LOG_LEVEL"); !ok {
		if got := LevelFromEnv(); got != LevelInfo {
			t.Errorf("default level = %v, want LevelInfo", got)
		}
	}

	t.Setenv("LOG_LEVEL", "debug")
	if got := LevelFromEnv(); got != LevelDebug {
		t.Errorf("LOG_LEVEL=debug => %v, want LevelDebug", got)
	}

	t.Setenv("LOG_LEVEL", "WARN")
	if got := LevelFromEnv(); got != LevelWarn {
		t.Errorf("LOG_LEVEL=WARN => %v, want LevelWarn", got)
	}
}

func TestOutputPathFile(t *testing.T) {
	got := OutputPath("/data/samples/input.csv", false)
	want := filepath.Join("/data/samples", "input.parquet")
	if got != want {
		t.Errorf("OutputPath() = %q, want %q", got, want)
	}
}

func TestOutputPathGzFile(t *testing.T) {
	got := OutputPath("/data/input.csv.gz", false)
	want := filepath.Join("/data", "input.parquet")
	if got != want {
		t.Errorf("OutputPath() = %q, want %q", got, want)
	}
}

func TestOutputPathNoDir(t *testing.T) {
	got := OutputPath("input.csv", false)
	want := filepath.Join(".", "input.parquet")
	if got != want {
		t.Errorf("OutputPath() = %q, want %q", got, want)
	}
}

func TestOutputPathStdin(t *testing.T) {
	got := OutputPath("/tmp/whatever", true)
	want := filepath.Join(".", "stdin.parquet")
	if got != want {
		t.Errorf("OutputPath() = %q, want %q", got, want)
	}
}

func TestCaptureStdinRejectsEmpty(t *testing.T) {
	_, err := CaptureStdin(strings.NewReader(""))
	if err == nil {
		t.Error("expected error for empty stdin")
	}
}

func TestCaptureStdinWritesContent(t *testing.T) {
	path, err := CaptureStdin(strings.NewReader("a,b\n1,2\n"))
	if err != nil {
		t.Fatalf("CaptureStdin error: %v", err)
	}
	defer os.Remove(path)

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if string(content) != "a,b\n1,2\n" {
		t.Errorf("got %q", string(content))
	}
}

func TestOpenInputPlainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.csv")
	if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	rc, err := OpenInput(path)
	if err != nil {
		t.Fatalf("OpenInput error: %v", err)
	}
	defer rc.Close()

	buf := make([]byte, 64)
	n, _ := rc.Read(buf)
	if !strings.HasPrefix(string(buf[:n]), "a,b") {
		t.Errorf("got %q", string(buf[:n]))
	}
}
