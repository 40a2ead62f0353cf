package history

import (
	"context"
	"sync"

	"github.com/facekit/facekit/model"
)

// DefaultMemoryCapacity bounds the in-memory ring when no capacity is
// given.
const DefaultMemoryCapacity = 50

// Memory is a bounded in-memory run log. When full, the oldest run is
// dropped. Thread-safe.
type Memory struct {
	mu       sync.RWMutex
	runs     []*model.RecognitionRun
	start    int
	count    int
	appended uint64
}

// NewMemory creates a memory sink retaining up to capacity runs.
// Non-positive capacities fall back to DefaultMemoryCapacity.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}

	return &Memory{
		runs: make([]*model.RecognitionRun, capacity),
	}
}

// Append records a run, evicting the oldest when at capacity.
func (m *Memory) Append(_ context.Context, run *model.RecognitionRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos := (m.start + m.count) % len(m.runs)
	m.runs[pos] = run

	if m.count < len(m.runs) {
		m.count++
	} else {
		m.start = (m.start + 1) % len(m.runs)
	}

	m.appended++

	return nil
}

// Recent returns up to limit runs, newest first. A non-positive limit
// returns all retained runs.
func (m *Memory) Recent(limit int) []*model.RecognitionRun {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := m.count
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]*model.RecognitionRun, 0, n)

	for i := 0; i < n; i++ {
		pos := (m.start + m.count - 1 - i) % len(m.runs)
		out = append(out, m.runs[pos])
	}

	return out
}

// Len returns the number of retained runs.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.count
}

// TotalAppended returns the number of runs ever appended, including
// evicted ones.
func (m *Memory) TotalAppended() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.appended
}
