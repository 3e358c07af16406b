package mocks

import (
	"sync"
	"time"
)

// BatchCall captures one RecordBatch call
type BatchCall struct {
	Operation string
	Successes int
	Errors    int
	Warnings  int
	Duration  time.Duration
}

// MockMetrics is a mock implementation of metrics recorder for testing
type MockMetrics struct {
	mu sync.Mutex

	ClientWrites       map[string]int // "operation/outcome" -> count
	ValidationFailures map[string]int // code -> count
	VersionConflicts   int
	Batches            []BatchCall
	SearchCalls        int
	LastSearchTotal    int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		ClientWrites:       make(map[string]int),
		ValidationFailures: make(map[string]int),
	}
}

func (m *MockMetrics) RecordClientWrite(operation, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClientWrites[operation+"/"+outcome]++
}

func (m *MockMetrics) RecordValidationFailure(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ValidationFailures[code]++
}

func (m *MockMetrics) RecordVersionConflict() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VersionConflicts++
}

func (m *MockMetrics) RecordBatch(operation string, successes, errors, warnings int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Batches = append(m.Batches, BatchCall{
		Operation: operation,
		Successes: successes,
		Errors:    errors,
		Warnings:  warnings,
		Duration:  duration,
	})
}

func (m *MockMetrics) RecordSearch(duration time.Duration, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SearchCalls++
	m.LastSearchTotal = total
}
