package logging

import (
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// New builds a logger writing to stderr. Unknown levels fall back to info.
func New(level, format string) *log.Logger {
	return NewWithOutput(os.Stderr, level, format)
}

// NewWithOutput is New with an explicit destination.
func NewWithOutput(out io.Writer, level, format string) *log.Logger {
	logger := log.New()
	logger.SetOutput(out)

	lvl, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)

	if strings.EqualFold(strings.TrimSpace(format), "json") {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return logger
}
