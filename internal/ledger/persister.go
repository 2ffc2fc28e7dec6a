package ledger

import (
	"context"
	"sync"
)

// Persister is the backing store for chats. Save must be atomic: after a
// failed Save the previously saved state of that session is still intact.
type Persister interface {
	Load(ctx context.Context) (map[string]*Chat, error)
	Save(ctx context.Context, sessionID string, chat *Chat) error
}

// MemoryPersister keeps snapshots in process memory. Useful for tests and
// for running without any storage configured.
type MemoryPersister struct {
	mu       sync.Mutex
	chats    map[string]*Chat
	failSave error
	saves    int
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{chats: make(map[string]*Chat)}
}

func (m *MemoryPersister) Load(ctx context.Context) (map[string]*Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*Chat, len(m.chats))
	for id, c := range m.chats {
		out[id] = c.clone()
	}
	return out, nil
}

func (m *MemoryPersister) Save(ctx context.Context, sessionID string, chat *Chat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return m.failSave
	}
	m.chats[sessionID] = chat.clone()
	m.saves++
	return nil
}

// Saves returns how many snapshots were stored.
func (m *MemoryPersister) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// SetFailSave makes every following Save return err until reset with nil.
func (m *MemoryPersister) SetFailSave(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSave = err
}
