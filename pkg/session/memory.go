package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	values    map[string]string
	expiresAt time.Time
}

// MemoryStore keeps sessions in process. Each write extends the session's ttl.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*memoryEntry),
	}
}

func (m *MemoryStore) entry(sid string, create bool) *memoryEntry {
	e, ok := m.sessions[sid]
	if ok && m.now().After(e.expiresAt) {
		delete(m.sessions, sid)
		ok = false
	}
	if !ok {
		if !create {
			return nil
		}
		e = &memoryEntry{values: make(map[string]string)}
		m.sessions[sid] = e
	}
	return e
}

func (m *MemoryStore) Get(_ context.Context, sid, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(sid, false)
	if e == nil {
		return "", false, nil
	}
	v, ok := e.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Put(_ context.Context, sid, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(sid, true)
	e.values[key] = value
	e.expiresAt = m.now().Add(m.ttl)
	return nil
}

func (m *MemoryStore) Forget(_ context.Context, sid, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e := m.entry(sid, false); e != nil {
		delete(e.values, key)
	}
	return nil
}

func (m *MemoryStore) Destroy(_ context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sid)
	return nil
}
