package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	Verbose bool
	JSON    bool

	// LogDir enables the timestamped file sink (logs/mp3player_<ts>.log).
	LogDir string

	// FileOnly suppresses console output. The interactive player owns the
	// terminal, so everything goes to the log file there.
	FileOnly bool
}

// New builds the application logger. Every run with a LogDir gets its own
// log file; console output is added unless FileOnly is set.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	var cores []zapcore.Core

	if opts.LogDir != "" {
		if err := os.MkdirAll(opts.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory %s: %w", opts.LogDir, err)
		}
		name := fmt.Sprintf("mp3player_%s.log", time.Now().Format("20060102_150405"))
		f, err := os.OpenFile(filepath.Join(opts.LogDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		enc := zap.NewProductionEncoderConfig()
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(f), level))
	}

	if !opts.FileOnly {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder := zapcore.NewConsoleEncoder(cfg)
		if opts.JSON {
			enc := zap.NewProductionEncoderConfig()
			enc.EncodeTime = zapcore.ISO8601TimeEncoder
			encoder = zapcore.NewJSONEncoder(enc)
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level))
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil
	}

	opt := []zap.Option{}
	if opts.Verbose {
		opt = append(opt, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return zap.New(zapcore.NewTee(cores...), opt...), nil
}

// MustNew creates a logger and panics if it fails.
func MustNew(opts Options) *zap.Logger {
	logger, err := New(opts)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	return logger
}
