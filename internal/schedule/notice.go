package schedule

import (
	"sync"
	"time"
)

// DefaultNoticeTTL is how long a notice stays visible before it auto-dismisses.
const DefaultNoticeTTL = 6 * time.Second

type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is the latest message shown above the grid.
type Notice struct {
	Level    Level
	Message  string
	PostedAt time.Time
}

// NoticeBoard keeps only the most recent notice. A new post replaces the previous one.
type NoticeBoard struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	current *Notice
}

func NewNoticeBoard(ttl time.Duration, now func() time.Time) *NoticeBoard {
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	if now == nil {
		now = time.Now
	}
	return &NoticeBoard{ttl: ttl, now: now}
}

func (b *NoticeBoard) Post(level Level, message string) Notice {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := Notice{Level: level, Message: message, PostedAt: b.now()}
	b.current = &n
	return n
}

// Current returns the visible notice. Expired notices are dropped on read.
func (b *NoticeBoard) Current() (Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil {
		return Notice{}, false
	}
	if b.expired(*b.current) {
		b.current = nil
		return Notice{}, false
	}
	return *b.current, true
}

func (b *NoticeBoard) Dismiss() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = nil
}

// Sweep drops an expired notice and reports whether it did.
func (b *NoticeBoard) Sweep() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current != nil && b.expired(*b.current) {
		b.current = nil
		return true
	}
	return false
}

func (b *NoticeBoard) expired(n Notice) bool {
	return !b.now().Before(n.PostedAt.Add(b.ttl))
}
