package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "users.json"))
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return s
}

func TestRegisterAndDedupe(t *testing.T) {
	t.Parallel()
	s := newStore(t)

	created, err := s.Register(Participant{ChatID: 1, FirstName: "Ana", Active: true})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !created {
		t.Fatal("first registration reported as duplicate")
	}

	created, err = s.Register(Participant{ChatID: 1, FirstName: "Ana-Maria", Active: true})
	if err != nil {
		t.Fatalf("Register duplicate: %v", err)
	}
	if created {
		t.Fatal("duplicate registration reported as new")
	}

	all, err := s.Participants()
	if err != nil {
		t.Fatalf("Participants: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("participants = %v", all)
	}
	// The stored record wins on re-registration.
	if got := all["1"].FirstName; got != "Ana" {
		t.Fatalf("first name = %q", got)
	}
	if all["1"].RegistrationDate == "" {
		t.Fatal("registration date not stamped")
	}
}

func TestActiveParticipantsSortedAndFiltered(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	for _, p := range []Participant{
		{ChatID: 30, Active: true},
		{ChatID: 10, Active: true},
		{ChatID: 20, Active: false},
	} {
		if _, err := s.Register(p); err != nil {
			t.Fatalf("Register %d: %v", p.ChatID, err)
		}
	}

	active, err := s.ActiveParticipants()
	if err != nil {
		t.Fatalf("ActiveParticipants: %v", err)
	}
	if len(active) != 2 || active[0].ChatID != 10 || active[1].ChatID != 30 {
		t.Fatalf("active = %+v", active)
	}
}

func TestSetActive(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	if _, err := s.Register(Participant{ChatID: 5, Active: true}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := s.SetActive(5, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	active, err := s.ActiveParticipants()
	if err != nil {
		t.Fatalf("ActiveParticipants: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("active after deactivation = %+v", active)
	}

	// Unknown chat ID is a no-op, not an error.
	if err := s.SetActive(404, false); err != nil {
		t.Fatalf("SetActive unknown: %v", err)
	}
}

func TestPersistsAcrossInstances(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "users.json")
	s := New(path)
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := s.Register(Participant{ChatID: 9, Username: "ana", Active: true}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	s2 := New(path)
	all, err := s2.Participants()
	if err != nil {
		t.Fatalf("Participants: %v", err)
	}
	if all["9"].Username != "ana" {
		t.Fatalf("participants = %v", all)
	}
}

func TestSaveIsWellFormedJSON(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "users.json")
	s := New(path)
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := s.Register(Participant{ChatID: 1, Active: true}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var doc struct {
		Participants map[string]Participant `json:"participants"`
		Settings     struct {
			LastModified *string `json:"last_modified"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("document is not valid JSON: %v", err)
	}
	if doc.Settings.LastModified == nil || *doc.Settings.LastModified == "" {
		t.Fatal("last_modified not set")
	}
}
