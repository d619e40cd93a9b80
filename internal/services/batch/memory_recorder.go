package batch

import (
	"context"
	"sync"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
)

// MemoryRecorder keeps the last few runs in memory. It stands in for the
// Postgres ledger when no database is configured.
type MemoryRecorder struct {
	mu   sync.Mutex
	size int
	runs []models.SyncRun
}

func NewMemoryRecorder(size int) *MemoryRecorder {
	return &MemoryRecorder{size: size}
}

func (m *MemoryRecorder) Start(_ context.Context, run models.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs = append(m.runs, run)
	if len(m.runs) > m.size {
		m.runs = m.runs[len(m.runs)-m.size:]
	}
	return nil
}

func (m *MemoryRecorder) Finish(_ context.Context, run models.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.runs {
		if m.runs[i].ID == run.ID {
			m.runs[i] = run
			return nil
		}
	}
	return nil
}

func (m *MemoryRecorder) List(_ context.Context, limit int) ([]models.SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.SyncRun, 0, limit)
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}
