package auth

import "sync"

// ExpiredListener receives the token that the backend rejected.
type ExpiredListener func(token string)

// Events fans out session-expired notifications to the session layer.
// Gateways publish, the service that owns stored sessions subscribes.
type Events struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]ExpiredListener
}

func NewEvents() *Events {
	return &Events{
		listeners: make(map[int]ExpiredListener),
	}
}

// OnTokenExpired registers a listener and returns a function that removes it.
func (e *Events) OnTokenExpired(l ExpiredListener) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	e.listeners[id] = l

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

// TokenExpired notifies every listener. Listeners run synchronously on the caller's goroutine.
func (e *Events) TokenExpired(token string) {
	if e == nil {
		return
	}

	e.mu.RLock()
	snapshot := make([]ExpiredListener, 0, len(e.listeners))
	for _, l := range e.listeners {
		snapshot = append(snapshot, l)
	}
	e.mu.RUnlock()

	for _, l := range snapshot {
		l(token)
	}
}
