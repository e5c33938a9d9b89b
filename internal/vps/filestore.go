package vps

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// fileState is the on-disk shape: both lists in one document, mirroring the
// two keys the panel keeps.
type fileState struct {
	Configs  []Config `json:"configs"`
	Statuses []Status `json:"statuses"`
}

// FileStore persists panel state to a single JSON file. Every mutation
// rewrites the whole file through a temp-file rename, so a crash mid-write
// never leaves a torn document.
type FileStore struct {
	path string

	mu    sync.Mutex
	state fileState
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read vps state: %w", err)
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("parse vps state: %w", err)
	}
	return s, nil
}

// Load returns copies of both lists.
func (s *FileStore) Load() ([]Config, []Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Config(nil), s.state.Configs...),
		append([]Status(nil), s.state.Statuses...)
}

// Save replaces both lists and persists them.
func (s *FileStore) Save(configs []Config, statuses []Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Configs = append([]Config(nil), configs...)
	s.state.Statuses = append([]Status(nil), statuses...)
	return s.persist()
}

func (s *FileStore) persist() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create vps state directory: %w", err)
	}

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode vps state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write vps state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace vps state: %w", err)
	}
	return nil
}
