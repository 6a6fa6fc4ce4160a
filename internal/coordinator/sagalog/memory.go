package sagalog

import (
	"context"
	"sync"
)

// Memory keeps entries in process. Used when no log file is configured.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Save(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *e
	cp.ErrorMessages = append([]string(nil), e.ErrorMessages...)
	m.entries = append(m.entries, cp)
	return nil
}

func (m *Memory) GetLatest(ctx context.Context, orderID string) (*Entry, error) {
	h, _ := m.History(ctx, orderID)
	if len(h) == 0 {
		return nil, ErrNotFound
	}
	return &h[len(h)-1], nil
}

func (m *Memory) History(_ context.Context, orderID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Entry
	for _, e := range m.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}
