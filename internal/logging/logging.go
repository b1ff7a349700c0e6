// Package logging builds the process logger: logrus with a nested formatter
// on stderr, optionally teed into a size-rotated file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	// Level is a logrus level name; empty means info.
	Level string
	// File enables rotated file output when non-empty.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	// NoColors disables ANSI colors on stderr.
	NoColors bool
	// ReportCaller adds file:line and function to each entry.
	ReportCaller bool
}

// fieldsOrder keeps the pipeline fields at the front of each line.
var fieldsOrder = []string{"component", "gesture", "confidence"}

// New returns a configured logger. The returned closer flushes and closes
// the log file and is never nil.
func New(opts Options) (*logrus.Logger, io.Closer, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		lvl, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("parse log level: %w", err)
		}
		level = lvl
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(newFormatter(opts.NoColors))

	writers := []io.Writer{os.Stderr}
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		fileWriter := &lumberjack.Logger{
			Filename:   opts.File,
			LocalTime:  true,
			Compress:   opts.Compress,
			MaxSize:    opts.MaxSizeMB,
			MaxAge:     opts.MaxAgeDays,
			MaxBackups: opts.MaxBackups,
		}
		writers = append(writers, fileWriter)
		closer = fileWriter
	}

	logger.SetOutput(io.MultiWriter(writers...))
	logger.SetReportCaller(opts.ReportCaller)

	return logger, closer, nil
}

func newFormatter(noColors bool) *formatter.Formatter {
	return &formatter.Formatter{
		NoColors:        noColors,
		TimestampFormat: "02 Jan 06 - 15:04:05",
		HideKeys:        false,
		FieldsOrder:     fieldsOrder,
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			funcName := s[len(s)-1]
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, funcName)
		},
	}
}

// Discard returns a logger that drops everything. Useful in tests and for
// optional loggers.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// OrDiscard returns log, or a discarding logger when log is nil.
func OrDiscard(log logrus.FieldLogger) logrus.FieldLogger {
	if log == nil {
		return Discard()
	}
	return log
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
