package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

// BootstrapLogger configures the process-wide logger. Level can be
// overridden with LOG_LEVEL (debug, info, warn, error).
func BootstrapLogger() {
	Log = logrus.New()
	Log.SetOutput(os.Stdout)
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	Log.SetReportCaller(true)
	Log.SetLevel(parseLevel(os.Getenv("LOG_LEVEL")))
}

func parseLevel(raw string) logrus.Level {
	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return logrus.DebugLevel
	}
	return level
}
