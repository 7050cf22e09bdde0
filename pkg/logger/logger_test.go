package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog/log"
)

func TestInitRejectsUnknownLevel(t *testing.T) {
	if err := Init(Config{Level: "loud", Format: "json"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestInitWritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	if err := Init(Config{Level: "info", Format: "json", Dir: dir, MaxSizeMB: 1, MaxAgeDays: 1, ServiceName: "test"}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	log.Info().Msg("hello")
	b, err := os.ReadFile(filepath.Join(dir, "app.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(b) == 0 {
		t.Fatal("expected log output in app.log")
	}
}
