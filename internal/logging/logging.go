// Package logging builds the process logger.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logrus logger writing to stdout.  Outside of dev the output
// is JSON so it can be shipped as-is; an unknown level falls back to info.
func New(level, env string) *logrus.Logger {
	return newWithOutput(os.Stdout, level, env)
}

func newWithOutput(w io.Writer, level, env string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	if env == "dev" {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	return l
}
