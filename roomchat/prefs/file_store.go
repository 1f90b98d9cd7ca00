// Package prefs persists the last used username and room to a JSON file.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"

	"github.com/vovakirdan/roomchat-sdk-go/roomchat"
)

const (
	keyUsername = "chat_username"
	keyRoom     = "chat_room"
)

// FileStore implements roomchat.PreferenceStore on top of a viper instance.
type FileStore struct {
	mu   sync.Mutex
	path string
	v    *viper.Viper
}

// NewFileStore returns a store backed by path. The file is created on first save.
func NewFileStore(path string) *FileStore {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	return &FileStore{path: path, v: v}
}

// DefaultPath returns roomchat/preferences.json under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(dir, "roomchat", "preferences.json"), nil
}

// Load reads the file. A missing file yields empty preferences.
func (s *FileStore) Load() (roomchat.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return roomchat.Preferences{}, nil
		}
		return roomchat.Preferences{}, fmt.Errorf("failed to read preferences: %w", err)
	}
	return roomchat.Preferences{
		Username: s.v.GetString(keyUsername),
		Room:     s.v.GetString(keyRoom),
	}, nil
}

func (s *FileStore) SaveUsername(name string) error {
	return s.save(keyUsername, name)
}

func (s *FileStore) SaveRoom(name string) error {
	return s.save(keyRoom, name)
}

func (s *FileStore) save(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set(key, value)
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}
