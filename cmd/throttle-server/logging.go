package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/natefinch/lumberjack"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newLogger writes to stderr and, when cfg.File is set, to a size-rotated
// log file as well.
func newLogger(cfg LogConfig) (*slog.Logger, io.Closer) {
	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)

	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		out = io.MultiWriter(os.Stderr, file)
		closer = file
	}

	opts := &slog.HandlerOptions{Level: cfg.Level}
	var h slog.Handler
	switch cfg.Format {
	case "json":
		h = slog.NewJSONHandler(out, opts)
	default:
		h = slog.NewTextHandler(out, opts)
	}
	return slog.New(h), closer
}
