package main

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. InitLogger configures it from the
// environment; until then it writes text at info level.
var Log = logrus.New()

// InitLogger sets level and format from LOG_LEVEL and LOG_FORMAT.
func InitLogger() {
	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	Log.SetOutput(os.Stdout)
}

// componentLog returns an entry tagged with the component name
func componentLog(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
