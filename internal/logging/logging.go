// Package logging sets up the process logger: a levelled, timestamped
// append-only log file plus a console mirror fed through the event queue.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/3leaps/mingwup/internal/events"
)

// Options configures New.
type Options struct {
	// Path of the log file. Empty disables file logging.
	Path string
	// Level for the file; defaults to debug.
	Level hclog.Level
	// ConsoleLevel for lines mirrored to Queue; defaults to info.
	ConsoleLevel hclog.Level
	// Queue receives console lines. Nil disables the mirror.
	Queue *events.Queue
}

// New builds the root logger and makes it the hclog default. The returned
// closer flushes and closes the log file.
func New(opts Options) (hclog.InterceptLogger, io.Closer, error) {
	if opts.Level == hclog.NoLevel {
		opts.Level = hclog.Debug
	}
	if opts.ConsoleLevel == hclog.NoLevel {
		opts.ConsoleLevel = hclog.Info
	}

	var (
		out    io.Writer = io.Discard
		closer io.Closer = nopCloser{}
		level            = opts.Level
	)
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) // #nosec G304 -- configured log path
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	} else {
		level = hclog.Off
	}

	logger := hclog.NewInterceptLogger(&hclog.LoggerOptions{
		Name:       "mingwup",
		Level:      level,
		Output:     out,
		TimeFormat: "2006-01-02 15:04:05.000",
	})
	if opts.Queue != nil {
		logger.RegisterSink(&events.Sink{Queue: opts.Queue, Level: opts.ConsoleLevel})
	}
	hclog.SetDefault(logger)
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
