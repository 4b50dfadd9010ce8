package state

import "sync"

// Screen points at the message that shows a user's schedule.
type Screen struct {
	ChatID    int64
	MessageID int
}

// Screens remembers the last schedule message of each user so background
// work can edit it in place.
type Screens struct {
	mu      sync.RWMutex
	screens map[int64]Screen
}

func NewScreens() *Screens {
	return &Screens{screens: make(map[int64]Screen)}
}

func (s *Screens) Remember(telegramID int64, screen Screen) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screens[telegramID] = screen
}

func (s *Screens) Get(telegramID int64) (Screen, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	screen, ok := s.screens[telegramID]
	return screen, ok
}

func (s *Screens) Forget(telegramID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.screens, telegramID)
}
