// Package localstore keeps the few values the engine persists locally between runs.
package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"go-easyapply-automation/internal/models"
)

const (
	KeyCurrentUser     = "currentUser"
	KeyIsLoggedIn      = "isLoggedIn"
	KeyUserID          = "userId"
	KeyCurrentJob      = "currentJob"
	KeyCurrentResumeID = "currentResumeId"
)

// Store is a JSON-file key/value store. Every write is flushed to disk.
type Store struct {
	mu       sync.Mutex
	filePath string
	values   map[string]json.RawMessage
}

// Open creates or loads the store at path.
func Open(path string) *Store {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Printf("⚠️ Failed to create storage directory: %v", err)
	}
	s := &Store{
		filePath: path,
		values:   make(map[string]json.RawMessage),
	}
	s.load()
	return s
}

// Get decodes key into out. It reports false when the key is absent.
func (s *Store) Get(key string, out any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = raw
	return s.save()
}

func (s *Store) Remove(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, k := range keys {
		if _, ok := s.values[k]; ok {
			delete(s.values, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.save()
}

// SaveLogin remembers the signed-in user.
func (s *Store) SaveLogin(u models.User) error {
	if err := s.Set(KeyCurrentUser, u); err != nil {
		return err
	}
	if err := s.Set(KeyUserID, u.ID); err != nil {
		return err
	}
	return s.Set(KeyIsLoggedIn, true)
}

// Logout forgets the user and everything tied to their session.
func (s *Store) Logout() error {
	return s.Remove(KeyCurrentUser, KeyIsLoggedIn, KeyUserID, KeyCurrentJob, KeyCurrentResumeID)
}

// CurrentUser returns the signed-in user, or nil.
func (s *Store) CurrentUser() *models.User {
	var loggedIn bool
	if ok, err := s.Get(KeyIsLoggedIn, &loggedIn); !ok || err != nil || !loggedIn {
		return nil
	}
	var u models.User
	if ok, err := s.Get(KeyCurrentUser, &u); !ok || err != nil {
		return nil
	}
	return &u
}

func (s *Store) UserID() string {
	var id string
	_, _ = s.Get(KeyUserID, &id)
	return id
}

// SetCurrentJob records the job being applied to. nil clears it.
func (s *Store) SetCurrentJob(_ context.Context, info *models.JobInfo) error {
	if info == nil {
		return s.Remove(KeyCurrentJob)
	}
	return s.Set(KeyCurrentJob, info)
}

func (s *Store) CurrentJob() *models.JobInfo {
	var info models.JobInfo
	if ok, err := s.Get(KeyCurrentJob, &info); !ok || err != nil {
		return nil
	}
	return &info
}

func (s *Store) SetCurrentResumeID(id string) error {
	if id == "" {
		return s.Remove(KeyCurrentResumeID)
	}
	return s.Set(KeyCurrentResumeID, id)
}

func (s *Store) CurrentResumeID() string {
	var id string
	_, _ = s.Get(KeyCurrentResumeID, &id)
	return id
}

// load reads the file into memory. A corrupt file starts the store empty.
func (s *Store) load() {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️ Failed to read %s: %v", filepath.Base(s.filePath), err)
		}
		return
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		log.Printf("⚠️ Failed to parse %s: %v", filepath.Base(s.filePath), err)
		s.values = make(map[string]json.RawMessage)
		return
	}
	log.Printf("📋 Loaded %d stored keys", len(s.values))
}

// save must be called with mu held.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal storage: %w", err)
	}
	if err := os.WriteFile(s.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.filePath, err)
	}
	return nil
}
