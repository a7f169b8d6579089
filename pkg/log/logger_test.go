package log

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerSingleton(t *testing.T) {
	first := Logger()
	second := Logger()

	if first != second {
		t.Fatalf("expected singleton logger instance")
	}

	if err := Sync(); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
}

func TestUseSwapsAndRestoresLogger(t *testing.T) {
	original := Logger()

	core, logs := observer.New(zapcore.InfoLevel)
	restore := Use(zap.New(core))

	Logger().Infow("fixture captured", "key", "Responses/Create/a.json")
	if logs.Len() != 1 {
		t.Fatalf("expected 1 observed entry, got %d", logs.Len())
	}
	if got := logs.All()[0].ContextMap()["key"]; got != "Responses/Create/a.json" {
		t.Fatalf("unexpected key field: %v", got)
	}

	restore()
	if Logger() != original {
		t.Fatalf("expected original logger after restore")
	}
}

func TestSetLevelRejectsUnknownLevel(t *testing.T) {
	if err := SetLevel("chatty"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if err := SetLevel("debug"); err != nil {
		t.Fatalf("set debug: %v", err)
	}
	t.Cleanup(func() { _ = SetLevel("info") })
	if err := SetLevel(""); err != nil {
		t.Fatalf("empty level should be ignored: %v", err)
	}
}
