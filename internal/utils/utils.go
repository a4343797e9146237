package utils

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. It writes to stderr so reports written to
// stdout stay machine readable.
var Log = &logrus.Logger{
	Out:       os.Stderr,
	Formatter: &logrus.TextFormatter{DisableTimestamp: true},
	Hooks:     make(logrus.LevelHooks),
	Level:     logrus.InfoLevel,
}

// Trace and panic are not exposed.
var levels = map[string]logrus.Level{
	"debug":   logrus.DebugLevel,
	"info":    logrus.InfoLevel,
	"warning": logrus.WarnLevel,
	"warn":    logrus.WarnLevel,
	"error":   logrus.ErrorLevel,
	"fatal":   logrus.FatalLevel,
}

// SetLogLevel sets the level of Log from its name.
func SetLogLevel(level string) error {
	l, ok := levels[strings.ToLower(level)]
	if !ok {
		return fmt.Errorf("bad log level %q, available: debug, info, warn, error, fatal", level)
	}
	Log.SetLevel(l)
	return nil
}
