// Package store persists the participant list as a single JSON document
// (database.json). The scheduling core treats participants as read-only
// snapshots fetched fresh at dispatch time; only the registration handlers
// write here.
package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"
)

type Participant struct {
	ChatID           int64  `json:"chat_id"`
	Username         string `json:"username"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	RegistrationDate string `json:"registration_date"`
	Active           bool   `json:"active"`
}

type document struct {
	Participants map[string]Participant `json:"participants"`
	Settings     settings               `json:"settings"`
}

type settings struct {
	LastModified *string `json:"last_modified"`
}

// Store is a file-backed participant registry. All operations re-read the
// document so out-of-band edits become visible on the next call; writes are
// serialized and land atomically via tmp+rename.
type Store struct {
	mu   sync.Mutex
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

// Init creates an empty document when none exists yet.
func (s *Store) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return s.saveLocked(&document{Participants: map[string]Participant{}})
}

// Participants returns a fresh snapshot of all participants keyed by chat ID.
func (s *Store) Participants() (map[string]Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	return doc.Participants, nil
}

// ActiveParticipants returns active participants in a stable order.
func (s *Store) ActiveParticipants() ([]Participant, error) {
	all, err := s.Participants()
	if err != nil {
		return nil, err
	}
	out := make([]Participant, 0, len(all))
	for _, p := range all {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out, nil
}

// Register adds the participant if not already present and reports whether a
// new record was created. Re-registering an existing participant is a no-op
// (the stored record wins, including its Active flag).
func (s *Store) Register(p Participant) (bool, error) {
	if p.RegistrationDate == "" {
		p.RegistrationDate = time.Now().Format(time.RFC3339)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.loadLocked()
	if err != nil {
		return false, err
	}
	key := strconv.FormatInt(p.ChatID, 10)
	if _, ok := doc.Participants[key]; ok {
		return false, nil
	}
	doc.Participants[key] = p
	if err := s.saveLocked(doc); err != nil {
		return false, err
	}
	return true, nil
}

// SetActive flips the active flag for a participant; unknown chat IDs are not
// an error (nothing to deactivate).
func (s *Store) SetActive(chatID int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.loadLocked()
	if err != nil {
		return err
	}
	key := strconv.FormatInt(chatID, 10)
	p, ok := doc.Participants[key]
	if !ok {
		return nil
	}
	if p.Active == active {
		return nil
	}
	p.Active = active
	doc.Participants[key] = p
	return s.saveLocked(doc)
}

func (s *Store) loadLocked() (*document, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &document{Participants: map[string]Participant{}}, nil
		}
		return nil, err
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	if doc.Participants == nil {
		doc.Participants = map[string]Participant{}
	}
	return &doc, nil
}

func (s *Store) saveLocked(doc *document) error {
	now := time.Now().Format(time.RFC3339)
	doc.Settings.LastModified = &now
	b, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
