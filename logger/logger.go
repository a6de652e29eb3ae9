// Package logger holds the logger shared by every package of the project.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
)

const projectName = "phrasegen"

var (
	once    sync.Once
	project *logrus.Logger
)

func base() *logrus.Logger {
	once.Do(func() {
		project = logrus.New()
		project.SetOutput(os.Stderr)
		project.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		})
		project.SetLevel(logrus.InfoLevel)
	})
	return project
}

// GetProjectLogger returns the project-wide logger.
func GetProjectLogger() *logrus.Entry {
	return base().WithField("name", projectName)
}

// SetLevel sets the level of the project logger from its name, e.g. "debug".
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.NotValidf("log level %q", level)
	}
	base().SetLevel(lvl)
	return nil
}

// Discard silences the project logger.
func Discard() {
	base().SetOutput(io.Discard)
}
