package view

import (
	"context"
	"sync"
)

// FormSession is the registered state of the currently mounted create/edit
// form: its submit/cancel callbacks plus dirty and in-flight flags. An
// externally rendered action bar drives the form through this shared slot
// without holding a reference to the form itself.
type FormSession struct {
	Dirty      bool
	Submitting bool
	OnSubmit   func(ctx context.Context) error
	OnCancel   func()
}

// SessionRegistry is the single mutable session slot. Only one session is
// live at a time — the state machine guarantees only one of create/edit is
// active — so a second registration silently supersedes the first.
type SessionRegistry struct {
	mu      sync.Mutex
	session FormSession
	owner   uint64
	nextID  uint64
}

// NewSessionRegistry returns an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{}
}

// Handle is a scoped registration. The form that registered holds the handle
// and must Release it on unmount so no dangling callbacks survive.
type Handle struct {
	reg *SessionRegistry
	id  uint64
}

// Register installs a form session and returns its scoped handle.
func (r *SessionRegistry) Register(s FormSession) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.session = s
	r.owner = r.nextID
	return &Handle{reg: r, id: r.nextID}
}

// Release clears the slot, but only if this handle still owns it. A handle
// superseded by a later registration releases as a no-op.
func (h *Handle) Release() {
	h.reg.mu.Lock()
	defer h.reg.mu.Unlock()
	if h.reg.owner != h.id {
		return
	}
	h.reg.session = FormSession{}
	h.reg.owner = 0
}

// SetDirty updates the dirty flag if the handle still owns the slot.
func (h *Handle) SetDirty(dirty bool) {
	h.reg.mu.Lock()
	defer h.reg.mu.Unlock()
	if h.reg.owner == h.id {
		h.reg.session.Dirty = dirty
	}
}

// SetSubmitting updates the in-flight flag if the handle still owns the slot.
func (h *Handle) SetSubmitting(submitting bool) {
	h.reg.mu.Lock()
	defer h.reg.mu.Unlock()
	if h.reg.owner == h.id {
		h.reg.session.Submitting = submitting
	}
}

// Current returns a snapshot of the live session.
func (r *SessionRegistry) Current() FormSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// Submit invokes the registered submit callback. It refuses while a submit
// is already in flight, so the same logical operation is never issued twice
// concurrently.
func (r *SessionRegistry) Submit(ctx context.Context) error {
	r.mu.Lock()
	if r.session.OnSubmit == nil || r.session.Submitting {
		r.mu.Unlock()
		return nil
	}
	onSubmit := r.session.OnSubmit
	r.session.Submitting = true
	r.mu.Unlock()

	err := onSubmit(ctx)

	r.mu.Lock()
	r.session.Submitting = false
	r.mu.Unlock()
	return err
}

// Cancel invokes the registered cancel callback. Confirming a discard when
// the form is dirty is the form's responsibility, not the registry's.
func (r *SessionRegistry) Cancel() {
	r.mu.Lock()
	onCancel := r.session.OnCancel
	r.mu.Unlock()
	if onCancel != nil {
		onCancel()
	}
}

func (r *SessionRegistry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = FormSession{}
	r.owner = 0
}
