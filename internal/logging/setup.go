package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/Olprog59/go-freightdesk/internal/config"
)

// ParseLevel maps a config level name to a slog level / Convertit un niveau de log
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the console handler, plus Loki when enabled. The returned
// close func flushes Loki and must run before the process exits.
//
// NewLogger construit le logger console, et Loki si activé.
func NewLogger(conf config.LoggingConfig, production bool, out io.Writer) (*slog.Logger, func() error) {
	level := ParseLevel(conf.Level)

	var console slog.Handler
	if strings.ToLower(conf.Format) == "json" {
		console = slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level:     level,
			AddSource: production,
		})
	} else {
		console = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	}

	if !conf.LokiEnabled {
		return slog.New(console), func() error { return nil }
	}

	loki := NewLokiHandler(LokiOptions{
		URL:       conf.LokiURL,
		Labels:    conf.LokiLabels,
		BatchSize: conf.LokiBatchSize,
		Level:     level,
	})
	return slog.New(NewMultiHandler(console, loki)), loki.Close
}

// MultiHandler fans a record out to several handlers / Diffuse un log vers plusieurs handlers
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler combines handlers / Combine plusieurs handlers
func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes to every enabled handler and joins their errors.
func (m *MultiHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: next}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: next}
}
