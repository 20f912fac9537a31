package journal

import (
	"context"
	"sort"
	"sync"

	"github.com/amirphl/signal-bot/internal/signal"
)

// Memory is an in-memory journal used in tests and dry runs.
type Memory struct {
	mu      sync.RWMutex
	signals []signal.Combined
}

// NewMemory creates an empty in-memory journal.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) LogSignal(_ context.Context, c signal.Combined) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals = append(m.signals, c)
	return nil
}

func (m *Memory) Signals(_ context.Context, symbol string, limit int) ([]signal.Combined, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []signal.Combined
	for _, c := range m.signals {
		if c.Symbol == symbol {
			result = append(result, c)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *Memory) Close() error { return nil }
