package test

import (
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

// TLogWriter is an io.Writer that writes to a testing.T log.
type TLogWriter struct {
	t *testing.T
}

// Write writes the given data to the testing.T log.
func (w *TLogWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// NewTLogWriter creates a new TLogWriter for the given testing.T.
func NewTLogWriter(t *testing.T) io.Writer {
	return &TLogWriter{t: t}
}

// NewLogger returns a debug level logrus logger writing to the testing.T
// log.
func NewLogger(t *testing.T) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(NewTLogWriter(t))
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})

	return l
}
