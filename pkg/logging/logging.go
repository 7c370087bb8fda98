// Package logging centralizes the core's structured logging: a single
// logrus.Logger configured once at server construction and threaded
// through every component that needs to report a warning or diagnostic
// without aborting a request.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the structured logger shared across reactors and components.
// It wraps *logrus.Logger rather than the global logrus instance so tests
// and multiple in-process servers can each own an independent configuration.
type Logger struct {
	*logrus.Logger
}

// New returns a Logger writing JSON-formatted entries to stderr at Info
// level, matching the verbosity and format the teacher's monitor process
// uses for its own epoll/connection diagnostics.
func New() *Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return &Logger{Logger: l}
}

// Nop returns a Logger with all output discarded, for use in tests and in
// any component constructed without an explicit Logger.
func Nop() *Logger {
	l := logrus.New()
	l.SetOutput(nopWriter{})
	return &Logger{Logger: l}
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
