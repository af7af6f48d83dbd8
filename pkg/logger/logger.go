// Package logger provides structured, module-scoped logging for the
// back-office client. It wraps logrus so call sites can chain contextual
// fields without caring about the backend.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is a module-scoped structured logger.
type Logger struct {
	base  *logrus.Logger
	entry *logrus.Entry
}

// NewDefault creates a logger tagged with the given module name, writing
// text-formatted lines to stderr at info level.
func NewDefault(module string) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stderr)
	base.SetLevel(logrus.InfoLevel)
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return &Logger{
		base:  base,
		entry: base.WithField("module", module),
	}
}

// SetOutput redirects all output of this logger.
func (l *Logger) SetOutput(w io.Writer) {
	l.base.SetOutput(w)
}

// SetLevel adjusts the minimum level. Accepted values match logrus level
// names ("debug", "info", "warn", "error"); unknown values are ignored.
func (l *Logger) SetLevel(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return
	}
	l.base.SetLevel(parsed)
}

// WithField returns a logger carrying an extra key/value pair.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{base: l.base, entry: l.entry.WithField(key, value)}
}

// WithFields returns a logger carrying several extra key/value pairs.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{base: l.base, entry: l.entry.WithFields(logrus.Fields(fields))}
}

// WithError returns a logger carrying the error under the "error" key.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{base: l.base, entry: l.entry.WithError(err)}
}

func (l *Logger) Debug(msg string) { l.entry.Debug(msg) }
func (l *Logger) Info(msg string)  { l.entry.Info(msg) }
func (l *Logger) Warn(msg string)  { l.entry.Warn(msg) }
func (l *Logger) Error(msg string) { l.entry.Error(msg) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
