package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New builds a logrus logger. Production and staging get JSON output,
// everything else gets human readable text.
func New(level, environment string) *logrus.Logger {
	return newWithOutput(level, environment, os.Stdout)
}

func newWithOutput(level, environment string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		log.SetLevel(logrus.InfoLevel)
		log.Warnf("invalid log level %q, defaulting to info", level)
	} else {
		log.SetLevel(lvl)
	}

	switch strings.ToLower(environment) {
	case "production", "staging":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	default:
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return log
}
