// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"strings"

	nested "github.com/antonfisher/nested-logrus-formatter"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup sets the level and formatter of the standard logger. When logFile is
// set, log lines are also written to a rotating file.
func Setup(level string, logFile string) {
	log.SetLevel(ParseLevel(level))
	log.SetFormatter(&nested.Formatter{
		HideKeys:        false,
		FieldsOrder:     []string{"module", "function"},
		TimestampFormat: "15:04:05",
	})

	if logFile == "" {
		log.SetOutput(os.Stderr)
		return
	}

	log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}))
}

// ParseLevel falls back to warn so the interactive menu stays readable.
func ParseLevel(level string) log.Level {
	if level == "" {
		return log.WarnLevel
	}
	parsed, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return log.WarnLevel
	}
	return parsed
}
