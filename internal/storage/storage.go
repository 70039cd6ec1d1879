package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"palette-agent/internal/model"
)

var ErrNotFound = errors.New("storage: not found")

type Store struct {
	path  string
	mu    sync.RWMutex
	state model.StoredState
}

func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	s := &Store{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.state = defaultState()
			return s.saveLocked()
		}
		return err
	}
	if len(b) == 0 {
		s.state = defaultState()
		return s.saveLocked()
	}

	var state model.StoredState
	if err := json.Unmarshal(b, &state); err != nil {
		return err
	}
	mergeDefaults(&state)
	s.state = state
	return nil
}

func defaultState() model.StoredState {
	return model.StoredState{
		SavedPalettes: []model.Palette{},
		CreatedAt:     time.Now().UTC(),
	}
}

func mergeDefaults(state *model.StoredState) {
	if state.SavedPalettes == nil {
		state.SavedPalettes = []model.Palette{}
	}
	if state.CreatedAt.IsZero() {
		state.CreatedAt = time.Now().UTC()
	}
}

func (s *Store) saveLocked() error {
	s.state.LastUpdatedUnixMS = time.Now().UnixMilli()
	b, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}

func (s *Store) SetLatestPalette(p model.Palette) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LatestPalette = &p
	return s.saveLocked()
}

func (s *Store) GetLatestPalette() *model.Palette {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.LatestPalette == nil {
		return nil
	}
	p := *s.state.LatestPalette
	return &p
}

func (s *Store) SavePalette(p model.Palette) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SavedPalettes = append(s.state.SavedPalettes, p)
	return s.saveLocked()
}

func (s *Store) ListSavedPalettes() []model.Palette {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Palette, len(s.state.SavedPalettes))
	copy(out, s.state.SavedPalettes)
	return out
}

func (s *Store) DeleteSavedPalette(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.state.SavedPalettes {
		if p.ID == id {
			s.state.SavedPalettes = append(s.state.SavedPalettes[:i], s.state.SavedPalettes[i+1:]...)
			return s.saveLocked()
		}
	}
	return ErrNotFound
}

func (s *Store) ClearSavedPalettes() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SavedPalettes = []model.Palette{}
	return s.saveLocked()
}
