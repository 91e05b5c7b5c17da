package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	logfilter "github.com/jmylchreest/slog-logfilter"
	"gopkg.in/natefinch/lumberjack.v2"
)

// logLevels exposes the runtime log level to the API.
type logLevels struct{}

func (logLevels) Level() slog.Level        { return logfilter.GetLevel() }
func (logLevels) SetLevel(level slog.Level) { logfilter.SetLevel(level) }

func setupLogger(level, format, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	logger := logfilter.New(
		logfilter.WithLevel(slogLevel),
		logfilter.WithFormat(format),
		logfilter.WithOutput(io.MultiWriter(os.Stdout, logWriter)),
	)
	slog.SetDefault(logger)
	return nil
}
