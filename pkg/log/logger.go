package log

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu         sync.Mutex
	logger     *zap.SugaredLogger
	level      = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	syncLogger = func() error { return nil }
)

// Logger returns a lazily initialised structured logger.
func Logger() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()

	if logger != nil {
		return logger
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	logger = base.Sugar()
	syncLogger = base.Sync

	return logger
}

// Use replaces the process logger, typically with zap.NewNop or an observer in tests.
// It returns a function restoring the previous logger.
func Use(base *zap.Logger) func() {
	mu.Lock()
	defer mu.Unlock()

	prevLogger, prevSync := logger, syncLogger
	logger = base.Sugar()
	syncLogger = base.Sync

	return func() {
		mu.Lock()
		defer mu.Unlock()
		logger, syncLogger = prevLogger, prevSync
	}
}

// SetLevel adjusts the minimum level of the default logger. Accepts zap level names.
func SetLevel(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	level.SetLevel(lvl)
	return nil
}

// Sync flushes any buffered log entries.
func Sync() error {
	mu.Lock()
	fn := syncLogger
	mu.Unlock()

	if err := fn(); err != nil {
		if strings.Contains(err.Error(), "bad file descriptor") || strings.Contains(err.Error(), "invalid argument") {
			return nil
		}
		return err
	}
	return nil
}
