// Package logging builds the process logger from configuration. The logger
// is created once at start-up and handed to every component that logs.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/efebarandurmaz/crewnet/internal/config"
)

// ParseLevel maps a level name to a log level. Unknown names are info.
func ParseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

func formatter(s string) log.Formatter {
	switch strings.ToLower(s) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// New returns a logger writing to w and, when cfg.File is set, appending to
// that file as well. The returned close func releases the file.
func New(cfg config.LogConfig, w io.Writer) (*log.Logger, func() error, error) {
	if w == nil {
		w = os.Stderr
	}
	closeFn := func() error { return nil }

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "open log file %s", cfg.File)
		}
		w = io.MultiWriter(w, f)
		closeFn = f.Close
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           ParseLevel(cfg.Level),
		Formatter:       formatter(cfg.Format),
	})
	return logger, closeFn, nil
}
