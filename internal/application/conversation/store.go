package conversation

import (
	"context"
	"sync"
)

// DraftStore maps a registrant id to its in-progress session.
// Sessions are inserted on /start and removed on a terminal transition.
type DraftStore interface {
	Load(ctx context.Context, registrantID string) (Session, bool, error)
	Save(ctx context.Context, registrantID string, s Session) error
	Delete(ctx context.Context, registrantID string) error
}

// MemoryStore is a process-local DraftStore.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

// Load returns the session of a registrant.
func (m *MemoryStore) Load(_ context.Context, id string) (Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok, nil
}

// Save stores or replaces a session.
func (m *MemoryStore) Save(_ context.Context, id string, s Session) error {
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return nil
}

// Delete removes a session. Missing ids are ignored.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Len returns the number of active sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// ─── per-registrant lock ───

// keyedMutex serialises work per key while letting different keys run in parallel.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock acquires the lock for key and returns its release function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refMutex{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
