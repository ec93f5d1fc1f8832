package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/serroba/shortlink/internal/auth"
	"github.com/serroba/shortlink/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository and
// auth.UserRepository.
type MemoryStore struct {
	mu       sync.RWMutex
	lastID   int64
	mappings map[int64]shortener.Mapping // id -> mapping
	byURL    map[string]int64            // longURL -> id
	users    map[string]auth.User        // username -> user
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mappings: make(map[int64]shortener.Mapping),
		byURL:    make(map[string]int64),
		users:    make(map[string]auth.User),
	}
}

func (m *MemoryStore) NextID(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastID++

	return m.lastID, nil
}

func (m *MemoryStore) Create(_ context.Context, mapping *shortener.Mapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byURL[mapping.LongURL]; ok {
		return shortener.ErrConflict
	}

	if _, ok := m.mappings[mapping.ID]; ok {
		return shortener.ErrConflict
	}

	m.mappings[mapping.ID] = *mapping
	m.byURL[mapping.LongURL] = mapping.ID

	if mapping.ID > m.lastID {
		m.lastID = mapping.ID
	}

	return nil
}

func (m *MemoryStore) GetByID(_ context.Context, id int64) (*shortener.Mapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mapping, ok := m.mappings[id]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return &mapping, nil
}

func (m *MemoryStore) GetByLongURL(_ context.Context, longURL string) (*shortener.Mapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byURL[longURL]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	mapping := m.mappings[id]

	return &mapping, nil
}

func (m *MemoryStore) UpdateExpiration(_ context.Context, id int64, expiresAt time.Time, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mapping, ok := m.mappings[id]
	if !ok {
		return shortener.ErrNotFound
	}

	mapping.ExpiresAt = expiresAt
	mapping.OwnerID = ownerID
	m.mappings[id] = mapping

	return nil
}

func (m *MemoryStore) IncrementClicks(_ context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mapping, ok := m.mappings[id]
	if !ok {
		return 0, shortener.ErrNotFound
	}

	mapping.Clicks++
	m.mappings[id] = mapping

	return mapping.Clicks, nil
}

func (m *MemoryStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mapping, ok := m.mappings[id]
	if !ok {
		return shortener.ErrNotFound
	}

	delete(m.mappings, id)
	delete(m.byURL, mapping.LongURL)

	return nil
}

// List returns all mappings ordered by id.
func (m *MemoryStore) List(_ context.Context) ([]*shortener.Mapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*shortener.Mapping, 0, len(m.mappings))
	for _, mapping := range m.mappings {
		out = append(out, &mapping)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (m *MemoryStore) CreateUser(_ context.Context, user *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.Username]; ok {
		return auth.ErrUsernameTaken
	}

	m.users[user.Username] = *user

	return nil
}

func (m *MemoryStore) GetUserByUsername(_ context.Context, username string) (*auth.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[username]
	if !ok {
		return nil, auth.ErrUserNotFound
	}

	return &user, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Compile-time checks.
var (
	_ shortener.Repository = (*MemoryStore)(nil)
	_ auth.UserRepository  = (*MemoryStore)(nil)
)
