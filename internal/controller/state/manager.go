package state

import (
	"sync"
	"time"
)

// Manager tracks the sign-in dialog of every user. A dialog left untouched for longer
// than the TTL reads as closed.
type Manager struct {
	mu      sync.RWMutex
	dialogs map[int64]Dialog
	ttl     time.Duration
	now     func() time.Time
}

func NewManager(ttl time.Duration, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{
		dialogs: make(map[int64]Dialog),
		ttl:     ttl,
		now:     now,
	}
}

// Step returns the user's current step, StateNone when there is no live dialog.
func (m *Manager) Step(telegramID int64) UserState {
	d, ok := m.dialog(telegramID)
	if !ok {
		return StateNone
	}
	return d.Step
}

// Begin opens a fresh dialog at step, dropping anything entered before.
func (m *Manager) Begin(telegramID int64, step UserState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dialogs[telegramID] = Dialog{Step: step, UpdatedAt: m.now()}
}

// AcceptEmail stores the email and moves the dialog to the password step.
func (m *Manager) AcceptEmail(telegramID int64, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dialogs[telegramID] = Dialog{Step: StateAwaitingPassword, Email: email, UpdatedAt: m.now()}
}

// Email returns the address entered in the first step.
func (m *Manager) Email(telegramID int64) (string, bool) {
	d, ok := m.dialog(telegramID)
	if !ok || d.Email == "" {
		return "", false
	}
	return d.Email, true
}

// Reset closes the user's dialog.
func (m *Manager) Reset(telegramID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.dialogs, telegramID)
}

func (m *Manager) dialog(telegramID int64) (Dialog, bool) {
	m.mu.RLock()
	d, ok := m.dialogs[telegramID]
	m.mu.RUnlock()
	if !ok {
		return Dialog{}, false
	}
	if m.ttl > 0 && m.now().Sub(d.UpdatedAt) > m.ttl {
		m.Reset(telegramID)
		return Dialog{}, false
	}
	return d, true
}
