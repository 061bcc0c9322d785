package state

import (
	"sort"
	"sync"

	"github.com/TheMichaelB/filedeck/internal/events"
	"github.com/TheMichaelB/filedeck/internal/models"
)

// MemoryStore keeps sessions for the life of the process only.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*models.Session),
	}
}

// Load returns a copy of the stored session.
func (m *MemoryStore) Load(profile string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, ok := m.sessions[profile]; ok {
		cp := *s
		cp.Trail = s.Trail.Clone()
		return &cp, nil
	}
	return nil, ErrStateNotFound
}

// Save stores a copy of the session.
func (m *MemoryStore) Save(profile string, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *session
	cp.Trail = session.Trail.Clone()
	m.sessions[profile] = &cp
	return nil
}

// Reset removes the session.
func (m *MemoryStore) Reset(profile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, profile)
	return nil
}

// List returns the stored profiles.
func (m *MemoryStore) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	profiles := make([]string, 0, len(m.sessions))
	for p := range m.sessions {
		profiles = append(profiles, p)
	}
	sort.Strings(profiles)
	return profiles, nil
}

// Migrate copies every session into target.
func (m *MemoryStore) Migrate(target Store) error {
	return migrate(m, target, events.NewNopLogger())
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
