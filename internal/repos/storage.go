package repos

import (
	"encoding/json"
	"sync"

	applog "storefront/internal/log"
)

// Entry is one serialized value destined for a storage key.
type Entry struct {
	Key   string
	Value []byte
}

// Storage is a session's durable key/value space. Every value is written
// whole; PutMany is all-or-nothing.
type Storage interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
	PutMany(entries []Entry) error
	Delete(key string) error
}

// Load decodes key into a T. Missing, unreadable or malformed values yield
// def; the failure is logged, never returned.
func Load[T any](s Storage, key string, def T) T {
	raw, ok, err := s.Get(key)
	if err != nil {
		applog.Error(nil, "storage.read.fail", err, map[string]any{"key": key})
		return def
	}
	if !ok {
		return def
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		applog.Error(nil, "storage.decode.fail", err, map[string]any{"key": key})
		return def
	}
	return v
}

func Encode(key string, v any) (Entry, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Key: key, Value: b}, nil
}

func Save[T any](s Storage, key string, v T) error {
	e, err := Encode(key, v)
	if err != nil {
		return err
	}
	return s.Put(e.Key, e.Value)
}

// MemoryStorage keeps values in process memory. Used by tests and when no
// database is configured.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: map[string][]byte{}}
}

func (m *MemoryStorage) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemoryStorage) Put(key string, value []byte) error {
	return m.PutMany([]Entry{{Key: key, Value: value}})
}

func (m *MemoryStorage) PutMany(entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		v := make([]byte, len(e.Value))
		copy(v, e.Value)
		m.data[e.Key] = v
	}
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MemoryKV hands out one MemoryStorage per session id.
type MemoryKV struct {
	mu       sync.Mutex
	sessions map[string]*MemoryStorage
}

func NewMemoryKV() *MemoryKV { return &MemoryKV{sessions: map[string]*MemoryStorage{}} }

func (m *MemoryKV) ForSession(sid string) Storage {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sid]
	if !ok {
		s = NewMemoryStorage()
		m.sessions[sid] = s
	}
	return s
}
