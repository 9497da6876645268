package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNew_ConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Console: &buf, Level: "warn"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer zap.ReplaceGlobals(zap.NewNop())

	log.Infow("hidden")
	log.Warnw("shown", "field", "DB_HOST")
	_ = log.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line leaked at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "DB_HOST") {
		t.Fatalf("warn line missing: %s", out)
	}

	zap.S().Errorw("via global")
	_ = zap.S().Sync()
	if !strings.Contains(buf.String(), "via global") {
		t.Fatalf("logger was not installed globally")
	}
}

func TestNew_FileSink(t *testing.T) {
	dir := t.TempDir()
	log, err := New(Options{Dir: dir, Quiet: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer zap.ReplaceGlobals(zap.NewNop())

	log.Infow("config loaded", "mode", "production")
	_ = log.Sync()

	data, err := os.ReadFile(filepath.Join(dir, FileName(time.Now())))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"config loaded"`) {
		t.Fatalf("unexpected log content: %s", data)
	}
}

func TestNew_BadLevel(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestFileName(t *testing.T) {
	got := FileName(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	if got != "wpconfig-2026-10-19.log" {
		t.Fatalf("FileName = %q", got)
	}
}
