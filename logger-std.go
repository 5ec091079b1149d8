//go:build !tinygo

package kw41z

import (
	"os"

	"github.com/sirupsen/logrus"
)

func init() {
	l := logrus.New()
	l.Formatter = new(logrus.TextFormatter)
	l.Level = logrus.InfoLevel
	l.Out = os.Stdout
	globalLogger = NewLogrusLogger(l)
}

// logrusLogger adapts a logrus logger to the Logger interface.
type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger wraps l so it can be passed to SetLogger. Messages carry a
// driver=kw41z field.
func NewLogrusLogger(l *logrus.Logger) Logger {
	return &logrusLogger{entry: l.WithField("driver", "kw41z")}
}

func (l *logrusLogger) Debug(msg string) { l.entry.Debug(msg) }
func (l *logrusLogger) Info(msg string)  { l.entry.Info(msg) }
func (l *logrusLogger) Warn(msg string)  { l.entry.Warning(msg) }
func (l *logrusLogger) Error(msg string) { l.entry.Error(msg) }
