package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Options struct {
	Level  string `doc:"log from debug, info, warn or error"`
	File   string `doc:"append logs to file"`
	Format string `doc:"format logs as text or json"         default:"text"`
	Source bool   `doc:"add source file and line to logs"`
}

func level(option string) (slog.Leveler, bool) {
	switch strings.ToLower(option) {
	case "":
		return nil, true
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return nil, false
	}
}

// New builds a logger from options. Options it cannot honor are reset to
// their default and reported as warnings through the returned logger.
func New(options *Options) *slog.Logger {
	var warnings []string

	lvl, ok := level(options.Level)
	if !ok {
		warnings = append(warnings, fmt.Sprintf("could not parse logger level %q", options.Level))
		options.Level = ""
	}
	opts := slog.HandlerOptions{Level: lvl, AddSource: options.Source}

	var output io.Writer
	switch options.File {
	case "", "-":
		output = os.Stdout
	case os.DevNull:
		return slog.New(slog.DiscardHandler)
	default:
		f, err := os.OpenFile(options.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("could not open logger file: %v", err))
			options.File = ""
			output = os.Stdout
		} else {
			output = f
		}
	}

	var logger *slog.Logger
	switch strings.ToLower(options.Format) {
	case "json":
		logger = slog.New(slog.NewJSONHandler(output, &opts))
	case "text":
		logger = slog.New(slog.NewTextHandler(output, &opts))
	default:
		warnings = append(warnings, fmt.Sprintf("could not parse logger format %q", options.Format))
		options.Format = "text"
		logger = slog.New(slog.NewTextHandler(output, &opts))
	}

	for _, w := range warnings {
		logger.Warn(w)
	}
	return logger
}
