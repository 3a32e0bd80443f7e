// Package logging builds the process logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Options selects level and output format. JSON is forced in production.
type Options struct {
	Level  string
	Format string
	Env    string
	Output io.Writer
}

// New returns a logrus logger configured from opts. Unknown levels fall
// back to info.
func New(opts Options) *logrus.Logger {
	l := logrus.New()
	if opts.Output != nil {
		l.SetOutput(opts.Output)
	} else {
		l.SetOutput(os.Stdout)
	}

	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || opts.Level == "" {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if UseJSON(opts.Format, opts.Env) {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap:        logrus.FieldMap{logrus.FieldKeyMsg: "msg", logrus.FieldKeyTime: "time"},
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}
	if err != nil && opts.Level != "" {
		l.WithField("level", opts.Level).Warn("unknown log level, using info")
	}
	return l
}

// UseJSON reports whether the json formatter applies.
func UseJSON(format, env string) bool {
	return strings.EqualFold(format, "json") || strings.EqualFold(env, "production")
}

// Discard returns a logger that writes nowhere, for tests.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
