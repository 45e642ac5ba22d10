// Package logger provides structured logging for the storefront core. It is a
// thin wrapper over logrus so services can carry a named logger without
// depending on the logrus API directly.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LoggingConfig controls how a Logger is constructed.
type LoggingConfig struct {
	Name   string
	Level  string // debug, info, warn, error
	Format string // text or json
	Output io.Writer
}

// Logger is a named structured logger.
type Logger struct {
	*logrus.Entry
}

// New builds a logger from the given configuration.
func New(cfg LoggingConfig) *Logger {
	base := logrus.New()

	if cfg.Output != nil {
		base.SetOutput(cfg.Output)
	} else {
		base.SetOutput(os.Stderr)
	}

	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	entry := base.WithField("component", cfg.Name)
	return &Logger{Entry: entry}
}

// NewDefault returns an info-level text logger named after the component.
func NewDefault(name string) *Logger {
	return New(LoggingConfig{Name: name, Level: "info"})
}

// WithField returns a logger carrying an extra structured field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{Entry: l.Entry.WithField(key, value)}
}

// WithFields returns a logger carrying several extra structured fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{Entry: l.Entry.WithFields(logrus.Fields(fields))}
}

// WithError returns a logger carrying the error as a field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Entry: l.Entry.WithError(err)}
}

// SetOutput redirects all output from this logger.
func (l *Logger) SetOutput(w io.Writer) {
	l.Entry.Logger.SetOutput(w)
}
