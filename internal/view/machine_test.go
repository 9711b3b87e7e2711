package view

import (
	"context"
	"errors"
	"testing"
)

func TestMachine_CreateThenBack(t *testing.T) {
	m := NewMachine()
	m.GoToCreate()
	if m.Current() != StateCreate {
		t.Fatalf("current = %s, want create", m.Current())
	}
	m.GoBack()
	if m.Current() != StateOverview {
		t.Errorf("after back = %s, want overview", m.Current())
	}
}

func TestMachine_EditRemembersOrigin(t *testing.T) {
	m := NewMachine()
	m.GoToAnalytics()
	m.GoToEdit("row-1")
	if m.Current() != StateEdit || m.EditingID() != "row-1" {
		t.Fatalf("current = %s editing = %s", m.Current(), m.EditingID())
	}
	m.GoBack()
	if m.Current() != StateAnalytics {
		t.Errorf("back from edit = %s, want analytics (the view before edit)", m.Current())
	}
	if m.EditingID() != "" {
		t.Error("editing id should be cleared on back")
	}
}

func TestMachine_BackNeverLandsOnForm(t *testing.T) {
	m := NewMachine()
	m.GoToCreate()
	m.GoToEdit("row-1") // previous is now create
	m.GoBack()
	if m.Current() != StateOverview {
		t.Errorf("back = %s, a form view must never be restored", m.Current())
	}
}

func TestMachine_RepeatedBackIdempotent(t *testing.T) {
	m := NewMachine()
	m.GoToCreate()
	m.GoBack()
	m.GoBack()
	m.GoBack()
	if m.Current() != StateOverview {
		t.Errorf("current = %s, want overview", m.Current())
	}
}

func TestMachine_AnalyticsOnlyFromOverview(t *testing.T) {
	m := NewMachine()
	m.GoToCreate()
	m.GoToAnalytics()
	if m.Current() != StateCreate {
		t.Errorf("analytics from create should be ignored, got %s", m.Current())
	}
}

func TestMachine_ResetClearsSession(t *testing.T) {
	m := NewMachine()
	m.GoToEdit("row-1")
	m.Sessions().Register(FormSession{Dirty: true, OnCancel: func() {}})
	m.Reset()
	if m.Current() != StateOverview || m.EditingID() != "" {
		t.Errorf("reset left %s/%s", m.Current(), m.EditingID())
	}
	s := m.Sessions().Current()
	if s.Dirty || s.OnCancel != nil {
		t.Error("reset must clear the form session slot")
	}
}

func TestRegistry_SecondRegistrationSupersedes(t *testing.T) {
	r := NewSessionRegistry()
	firstCancelled := false
	h1 := r.Register(FormSession{OnCancel: func() { firstCancelled = true }})
	r.Register(FormSession{OnCancel: func() {}})

	// releasing a superseded handle must not clear the live session
	h1.Release()
	if r.Current().OnCancel == nil {
		t.Error("superseded release cleared the live session")
	}
	r.Cancel()
	if firstCancelled {
		t.Error("cancel reached the superseded session")
	}
}

func TestRegistry_ReleaseClearsOwnSlot(t *testing.T) {
	r := NewSessionRegistry()
	h := r.Register(FormSession{Dirty: true})
	h.Release()
	if r.Current().Dirty {
		t.Error("release did not clear the slot")
	}
}

func TestRegistry_SubmitGuard(t *testing.T) {
	r := NewSessionRegistry()
	calls := 0
	release := make(chan struct{})
	started := make(chan struct{})
	r.Register(FormSession{OnSubmit: func(ctx context.Context) error {
		calls++
		close(started)
		<-release
		return nil
	}})

	done := make(chan error)
	go func() { done <- r.Submit(context.Background()) }()
	<-started

	// a second submit while the first is in flight is refused
	if err := r.Submit(context.Background()); err != nil {
		t.Errorf("guarded submit returned %v", err)
	}
	close(release)
	<-done
	if calls != 1 {
		t.Errorf("submit ran %d times, want 1", calls)
	}
}

func TestRegistry_SubmitPropagatesError(t *testing.T) {
	r := NewSessionRegistry()
	want := errors.New("boom")
	r.Register(FormSession{OnSubmit: func(ctx context.Context) error { return want }})
	if err := r.Submit(context.Background()); !errors.Is(err, want) {
		t.Errorf("submit error = %v, want boom", err)
	}
	if r.Current().Submitting {
		t.Error("submitting flag stuck after error")
	}
}

func TestRegistry_DirtyFlagViaHandle(t *testing.T) {
	r := NewSessionRegistry()
	h := r.Register(FormSession{})
	h.SetDirty(true)
	if !r.Current().Dirty {
		t.Error("dirty flag not visible through the registry")
	}
	r.Register(FormSession{})
	h.SetDirty(true) // superseded handle must not touch the new session
	if r.Current().Dirty {
		t.Error("stale handle mutated the new session")
	}
}
