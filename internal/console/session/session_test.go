package session

import (
	"testing"
	"time"
)

func TestManager_CreateAndGet(t *testing.T) {
	m := NewManager(time.Hour, time.Hour)

	s := m.Create("ops", []string{"contacts.view"})
	if s.ID == "" {
		t.Fatal("session id is empty")
	}

	got := m.Get(s.ID)
	if got == nil {
		t.Fatal("Get returned nil for a live session")
	}
	if got.Actor != "ops" {
		t.Fatalf("actor = %q, want %q", got.Actor, "ops")
	}
}

func TestManager_GetDropsExpired(t *testing.T) {
	m := NewManager(time.Hour, time.Hour)

	s := m.Create("ops", nil)
	s.CreatedAt = time.Now().Add(-2 * time.Hour)

	if got := m.Get(s.ID); got != nil {
		t.Fatal("Get returned an expired session")
	}
	if got := m.Get(s.ID); got != nil {
		t.Fatal("expired session survived removal")
	}
}

func TestManager_CleanupDropsIdle(t *testing.T) {
	m := NewManager(time.Hour, 10*time.Minute)

	idle := m.Create("idle", nil)
	idle.LastActiveAt = time.Now().Add(-time.Hour)
	active := m.Create("active", nil)
	active.AddHistory("find contacts")

	m.Cleanup()

	if m.Get(idle.ID) != nil {
		t.Fatal("idle session survived cleanup")
	}
	if m.Get(active.ID) == nil {
		t.Fatal("active session removed by cleanup")
	}
}

func TestSession_AddHistoryTouches(t *testing.T) {
	s := NewSession("ops", nil)
	before := s.LastActiveAt

	time.Sleep(time.Millisecond)
	s.AddHistory("describe")

	if len(s.History) != 1 || s.History[0] != "describe" {
		t.Fatalf("history = %v", s.History)
	}
	if !s.LastActiveAt.After(before) {
		t.Fatal("AddHistory did not touch LastActiveAt")
	}
}
