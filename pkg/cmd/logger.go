package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileMaxSizeMB  = 1
	logFileMaxBackups = 10
)

// ContextHandler is a custom slog.Handler that enriches log records with application-specific attributes.
// It embeds a slog.Handler and adds attributes like application name and version, as well as request-specific context data.
type ContextHandler struct {
	slog.Handler
	ver string
	app string
}

// Handle processes a log record by enriching it with context and application-specific attributes.
// It adds attributes such as "req_id" from the context, "app", and "ver" before delegating to the embedded handler.
// Returns error if the embedded handler fails.

//nolint:gocritic // ignore this linting rule
func (h ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if requestID, ok := ctx.Value("req_id").(string); ok {
		r.AddAttrs(slog.String("req_id", requestID))
	}

	r.AddAttrs(slog.String("app", h.app), slog.String("ver", h.ver))

	return h.Handler.Handle(ctx, r)
}

func rotatingFile(path string) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    logFileMaxSizeMB,
		MaxBackups: logFileMaxBackups,
	}
}

func newHandler(w io.Writer, text bool, options *slog.HandlerOptions) slog.Handler {
	if text {
		return slog.NewTextHandler(w, options)
	}

	return slog.NewJSONHandler(w, options)
}

// fanoutHandler passes every record to each of its handlers that accepts the record's level.
type fanoutHandler []slog.Handler

func (h fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, hh := range h {
		if hh.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

//nolint:gocritic // slog.Handler signature
func (h fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error

	for _, hh := range h {
		if hh.Enabled(ctx, r.Level) {
			errs = append(errs, hh.Handle(ctx, r.Clone()))
		}
	}

	return errors.Join(errs...)
}

func (h fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanoutHandler, len(h))
	for i, hh := range h {
		out[i] = hh.WithAttrs(attrs)
	}

	return out
}

func (h fanoutHandler) WithGroup(name string) slog.Handler {
	out := make(fanoutHandler, len(h))
	for i, hh := range h {
		out[i] = hh.WithGroup(name)
	}

	return out
}

// initLogger initializes the default logger for the application using slog.
// Logs go to stdout and, when a log file is configured, to a size-rotated file as well. An error
// log file receives only records at error level.
// It returns an error if the log level cannot be parsed.
func initLogger(arg *args) error {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(arg.LogLevel)); err != nil {
		return err
	}

	options := &slog.HandlerOptions{
		Level: logLevel,
	}

	var out io.Writer = os.Stdout
	if arg.LogFile != "" {
		out = io.MultiWriter(os.Stdout, rotatingFile(arg.LogFile))
	}

	logHandler := newHandler(out, arg.TextFormat, options)

	if arg.ErrLogFile != "" {
		errHandler := newHandler(rotatingFile(arg.ErrLogFile), arg.TextFormat, &slog.HandlerOptions{
			Level: slog.LevelError,
		})

		logHandler = fanoutHandler{logHandler, errHandler}
	}

	ctxHandler := &ContextHandler{
		Handler: logHandler,
		ver:     arg.version,
		app:     "wikiview",
	}

	logger := slog.New(ctxHandler)

	slog.SetDefault(logger)

	return nil
}
