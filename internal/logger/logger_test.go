package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"detectview/internal/config"
)

func TestLogger_WritesLevelFiles(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(&config.Config{LogDirectory: dir})
	defer l.Close()

	l.Named("smoother").Warning("dropped batch %d", 7)

	data, err := os.ReadFile(filepath.Join(dir, WarningFile))
	if err != nil {
		t.Fatalf("Failed to read warning log: %v", err)
	}
	if !strings.Contains(string(data), "[smoother] dropped batch 7") {
		t.Errorf("Expected component-tagged entry, got %q", string(data))
	}
}

func TestLogger_CleanLogs(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(&config.Config{LogDirectory: dir})
	defer l.Close()

	l.Error("boom")
	if err := l.CleanLogs(ErrorFile); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, ErrorFile))
	if err != nil {
		t.Fatalf("Failed to stat error log: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("Expected truncated error log, got %d bytes", info.Size())
	}
}

func TestNamed_Nested(t *testing.T) {
	l := NewDiscard().Named("stream").Named("client")
	if l.component != "stream.client" {
		t.Errorf("Expected nested component name, got %s", l.component)
	}
}
