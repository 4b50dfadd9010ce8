package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultSweepInterval = time.Second
	defaultEvictInterval = 5 * time.Minute
)

// Schedules is the registry of open schedules the background tasks maintain.
type Schedules interface {
	SweepNotices() []int64
	EvictIdle(now time.Time, idle time.Duration) int
}

// RefreshFunc redraws the schedule message of a user.
type RefreshFunc func(ctx context.Context, telegramID int64)

// Scheduler runs the background tasks: expiring notices and evicting idle schedules.
type Scheduler struct {
	schedules     Schedules
	refresh       RefreshFunc
	idleTimeout   time.Duration
	sweepInterval time.Duration
	evictInterval time.Duration
	now           func() time.Time
	logger        *zap.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewScheduler(schedules Schedules, refresh RefreshFunc, idleTimeout time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		schedules:     schedules,
		refresh:       refresh,
		idleTimeout:   idleTimeout,
		sweepInterval: defaultSweepInterval,
		evictInterval: defaultEvictInterval,
		now:           time.Now,
		logger:        logger.Named("scheduler"),
		stopChan:      make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler",
		zap.Duration("idle_timeout", s.idleTimeout))

	s.wg.Add(2)
	go s.run(ctx, "notice sweep", s.sweepInterval, s.sweepNotices)
	go s.run(ctx, "idle eviction", s.evictInterval, s.evictIdle)
}

// Stop ends the tasks and waits for them to return. It is safe to call twice.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context, name string, interval time.Duration, task func(context.Context)) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			task(ctx)
		case <-s.stopChan:
			s.logger.Debug("Task stopped", zap.String("task", name))
			return
		case <-ctx.Done():
			s.logger.Debug("Task cancelled", zap.String("task", name))
			return
		}
	}
}

// sweepNotices redraws the schedules whose notice just expired.
func (s *Scheduler) sweepNotices(ctx context.Context) {
	for _, id := range s.schedules.SweepNotices() {
		s.refresh(ctx, id)
	}
}

func (s *Scheduler) evictIdle(context.Context) {
	if n := s.schedules.EvictIdle(s.now(), s.idleTimeout); n > 0 {
		s.logger.Info("Closed idle schedules", zap.Int("count", n))
	}
}
