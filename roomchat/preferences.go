package roomchat

import "sync"

// Preferences is what a PreferenceStore remembers between runs.
type Preferences struct {
	Username string
	Room     string
}

// PreferenceStore persists the last username and room.
// It is read once when a session starts and written on successful
// SetUsername and JoinRoom calls.
type PreferenceStore interface {
	Load() (Preferences, error)
	SaveUsername(name string) error
	SaveRoom(name string) error
}

// MemoryPreferences keeps preferences in memory.
type MemoryPreferences struct {
	mu    sync.Mutex
	prefs Preferences
}

func NewMemoryPreferences(p Preferences) *MemoryPreferences {
	return &MemoryPreferences{prefs: p}
}

func (m *MemoryPreferences) Load() (Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefs, nil
}

func (m *MemoryPreferences) SaveUsername(name string) error {
	m.mu.Lock()
	m.prefs.Username = name
	m.mu.Unlock()
	return nil
}

func (m *MemoryPreferences) SaveRoom(name string) error {
	m.mu.Lock()
	m.prefs.Room = name
	m.mu.Unlock()
	return nil
}
