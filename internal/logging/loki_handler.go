package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strconv"
	"sync"
	"time"
)

// DefaultFlushInterval is how often a batching handler pushes on its own.
const DefaultFlushInterval = 5 * time.Second

// LokiOptions configures a LokiHandler / Configure un LokiHandler
type LokiOptions struct {
	URL           string            // Loki base URL, e.g. http://localhost:3100
	Labels        map[string]string // Static stream labels, e.g. {"app": "freightdesk"}
	BatchSize     int               // Entries buffered before a push (0 = push every record)
	FlushInterval time.Duration     // Periodic push of a partial batch (default 5s)
	Level         slog.Leveler
}

// LokiHandler is a slog.Handler that pushes records to Loki over HTTP.
// Handlers derived with WithAttrs or WithGroup share the same batch.
//
// LokiHandler est un slog.Handler qui pousse les logs vers Loki.
type LokiHandler struct {
	sink   *lokiSink
	level  slog.Leveler
	bound  []boundAttr
	groups []string
}

// boundAttr is an attribute added by WithAttrs under the groups open at that time.
type boundAttr struct {
	groups []string
	attr   slog.Attr
}

// lokiSink owns the buffered entries and the HTTP client.
type lokiSink struct {
	url       string
	labels    map[string]string
	client    *http.Client
	errOut    io.Writer
	mu        sync.Mutex
	batch     []lokiEntry
	batchSize int
	interval  time.Duration
	timer     *time.Timer
	closed    bool
}

type lokiEntry struct {
	timestamp time.Time
	line      string
}

type lokiPushRequest struct {
	Streams []lokiStream `json:"streams"`
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}

// NewLokiHandler creates a handler that pushes to Loki / Crée un handler qui envoie vers Loki
func NewLokiHandler(opts LokiOptions) *LokiHandler {
	labels := make(map[string]string, len(opts.Labels))
	for k, v := range opts.Labels {
		labels[k] = v
	}
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}
	interval := opts.FlushInterval
	if interval <= 0 {
		interval = DefaultFlushInterval
	}

	sink := &lokiSink{
		url:       opts.URL + "/loki/api/v1/push",
		labels:    labels,
		client:    &http.Client{Timeout: 5 * time.Second},
		errOut:    os.Stderr,
		batch:     make([]lokiEntry, 0, max(opts.BatchSize, 1)),
		batchSize: opts.BatchSize,
		interval:  interval,
	}
	if opts.BatchSize > 0 {
		sink.timer = time.AfterFunc(interval, sink.periodicFlush)
	}

	return &LokiHandler{sink: sink, level: level}
}

// Enabled reports whether the handler handles records at the given level.
func (h *LokiHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle encodes the record as one JSON line and queues it.
func (h *LokiHandler) Handle(_ context.Context, r slog.Record) error {
	line := map[string]any{
		"time":  r.Time.Format(time.RFC3339Nano),
		"level": r.Level.String(),
		"msg":   r.Message,
	}

	for _, b := range h.bound {
		putAttr(line, b.groups, b.attr)
	}
	r.Attrs(func(a slog.Attr) bool {
		putAttr(line, h.groups, a)
		return true
	})

	data, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("failed to marshal log to JSON: %w", err)
	}

	return h.sink.add(lokiEntry{timestamp: r.Time, line: string(data)})
}

// WithAttrs returns a handler that adds attrs to every record.
func (h *LokiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	next.bound = slices.Clone(h.bound)
	for _, a := range attrs {
		next.bound = append(next.bound, boundAttr{groups: h.groups, attr: a})
	}
	return &next
}

// WithGroup returns a handler that nests later attributes under name.
func (h *LokiHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(slices.Clone(h.groups), name)
	return &next
}

// Close stops the periodic push and sends what is left / Arrête l'envoi périodique et vide le lot
func (h *LokiHandler) Close() error {
	return h.sink.close()
}

// putAttr writes a under the nested maps named by groups.
func putAttr(line map[string]any, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup && len(a.Value.Group()) == 0 {
		return
	}
	dst := line
	for _, g := range groups {
		sub, ok := dst[g].(map[string]any)
		if !ok {
			sub = make(map[string]any)
			dst[g] = sub
		}
		dst = sub
	}
	writeAttr(dst, a)
}

func writeAttr(dst map[string]any, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() != slog.KindGroup {
		dst[a.Key] = attrValue(a.Value)
		return
	}
	members := a.Value.Group()
	if len(members) == 0 {
		return
	}
	target := dst
	if a.Key != "" {
		sub, ok := dst[a.Key].(map[string]any)
		if !ok {
			sub = make(map[string]any, len(members))
			dst[a.Key] = sub
		}
		target = sub
	}
	for _, m := range members {
		writeAttr(target, m)
	}
}

func attrValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
	}
	return v.Any()
}

func (s *lokiSink) add(e lokiEntry) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.batch = append(s.batch, e)
	full := s.batchSize == 0 || len(s.batch) >= s.batchSize
	s.mu.Unlock()

	if full {
		return s.flush()
	}
	return nil
}

// flush sends all batched entries to Loki
func (s *lokiSink) flush() error {
	s.mu.Lock()
	if len(s.batch) == 0 {
		s.mu.Unlock()
		return nil
	}
	entries := s.batch
	s.batch = make([]lokiEntry, 0, cap(entries))
	s.mu.Unlock()

	values := make([][]string, len(entries))
	for i, entry := range entries {
		// Loki expects [timestamp_in_nanoseconds, log_line]
		values[i] = []string{strconv.FormatInt(entry.timestamp.UnixNano(), 10), entry.line}
	}

	return s.push(lokiPushRequest{
		Streams: []lokiStream{{Stream: s.labels, Values: values}},
	})
}

// push sends one request. An unreachable Loki never fails the caller.
func (s *lokiSink) push(req lokiPushRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal push request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, s.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		fmt.Fprintf(s.errOut, "loki: push failed: %v\n", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		fmt.Fprintf(s.errOut, "loki: push rejected with %d: %s\n", resp.StatusCode, body)
	}
	return nil
}

func (s *lokiSink) periodicFlush() {
	_ = s.flush()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed && s.timer != nil {
		s.timer.Reset(s.interval)
	}
}

func (s *lokiSink) close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	return s.flush()
}
