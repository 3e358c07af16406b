package service

import (
	"context"
	"errors"
	"time"

	"github.com/Olprog59/go-freightdesk/internal/repository"
)

// Common service errors
var (
	ErrClientNotFound  = errors.New("client not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// MetricsRecorder records record-service metrics / Enregistre les métriques du service de fiches
type MetricsRecorder interface {
	RecordClientWrite(operation, outcome string)
	RecordValidationFailure(code string)
	RecordVersionConflict()
	RecordBatch(operation string, successes, errors, warnings int, duration time.Duration)
	RecordSearch(duration time.Duration, total int)
}

type noopMetrics struct{}

func (noopMetrics) RecordClientWrite(string, string) {}
func (noopMetrics) RecordValidationFailure(string) {}
func (noopMetrics) RecordVersionConflict() {}
func (noopMetrics) RecordBatch(string, int, int, int, time.Duration) {}
func (noopMetrics) RecordSearch(time.Duration, int) {}

func metricsOrNoop(m MetricsRecorder) MetricsRecorder {
	if m == nil {
		return noopMetrics{}
	}
	return m
}

// retryOnConflict re-runs fn while the store reports a version conflict, at
// most retries extra times. fn must re-read the record on every call.
func retryOnConflict(ctx context.Context, retries int, m MetricsRecorder, fn func() error) error {
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		err = fn()
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
		m.RecordVersionConflict()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}
