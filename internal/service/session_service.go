package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/drivingschool_bot/internal/auth"
	"github.com/Freeeeeet/drivingschool_bot/internal/model"
	"github.com/Freeeeeet/drivingschool_bot/internal/schedule"
	"go.uber.org/zap"
)

const expiredCleanupTimeout = 5 * time.Second

// SessionStore persists one session per Telegram user.
type SessionStore interface {
	Save(ctx context.Context, s *model.SessionRecord) error
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.SessionRecord, error)
	Delete(ctx context.Context, telegramID int64) error
	DeleteByToken(ctx context.Context, token string) ([]int64, error)
}

type Authenticator interface {
	Login(ctx context.Context, email, password string) (*auth.Session, error)
}

type entry struct {
	ctrl  *schedule.Controller
	token string
}

// SessionService owns signed-in users and their schedule controllers.
type SessionService struct {
	store  SessionStore
	authn  Authenticator
	gw     schedule.Gateway
	opts   schedule.Options
	logger *zap.Logger

	mu          sync.RWMutex
	controllers map[int64]entry

	unsubscribe func()
}

func NewSessionService(
	store SessionStore,
	authn Authenticator,
	gw schedule.Gateway,
	events *auth.Events,
	opts schedule.Options,
	logger *zap.Logger,
) *SessionService {
	s := &SessionService{
		store:       store,
		authn:       authn,
		gw:          gw,
		opts:        opts,
		logger:      logger.Named("sessions"),
		controllers: make(map[int64]entry),
	}
	s.unsubscribe = events.OnTokenExpired(s.onTokenExpired)
	return s
}

// Close stops listening for expired tokens.
func (s *SessionService) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Login signs the Telegram user in and replaces any previous session.
func (s *SessionService) Login(ctx context.Context, telegramID int64, email, password string) (*auth.Session, error) {
	session, err := s.authn.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	record := &model.SessionRecord{TelegramID: telegramID, Token: session.Token, User: session.User}
	if err := s.store.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	s.drop(telegramID)

	s.logger.Info("User signed in",
		zap.Int64("telegram_id", telegramID),
		zap.String("user_id", session.User.ID),
		zap.String("role", string(session.User.Role)))

	return session, nil
}

func (s *SessionService) Logout(ctx context.Context, telegramID int64) error {
	if err := s.store.Delete(ctx, telegramID); err != nil {
		return err
	}
	s.drop(telegramID)

	s.logger.Info("User signed out", zap.Int64("telegram_id", telegramID))
	return nil
}

// Session returns the stored session, or auth.ErrNoSession.
func (s *SessionService) Session(ctx context.Context, telegramID int64) (*auth.Session, error) {
	record, err := s.store.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, auth.ErrNoSession
	}

	session := &auth.Session{Token: record.Token, User: record.User}
	if !session.Valid() {
		return nil, auth.ErrNoSession
	}
	return session, nil
}

// Controller returns the user's schedule, creating and mounting it on first use.
// A failed first load still returns the controller; its notice carries the error.
func (s *SessionService) Controller(ctx context.Context, telegramID int64) (*schedule.Controller, error) {
	s.mu.RLock()
	e, ok := s.controllers[telegramID]
	s.mu.RUnlock()
	if ok {
		return e.ctrl, nil
	}

	session, err := s.Session(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if e, ok := s.controllers[telegramID]; ok {
		s.mu.Unlock()
		return e.ctrl, nil
	}
	ctrl := schedule.NewController(s.gw, *session, s.opts, s.logger.With(zap.Int64("telegram_id", telegramID)))
	s.controllers[telegramID] = entry{ctrl: ctrl, token: session.Token}
	s.mu.Unlock()

	if err := ctrl.Mount(ctx); err != nil && !errors.Is(err, schedule.ErrSuperseded) {
		s.logger.Warn("First schedule load failed", zap.Int64("telegram_id", telegramID), zap.Error(err))
	}
	return ctrl, nil
}

// Active returns the controller if one is in memory.
func (s *SessionService) Active(telegramID int64) (*schedule.Controller, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.controllers[telegramID]
	return e.ctrl, ok
}

// EvictIdle unmounts controllers unused for longer than idle and returns how many went.
func (s *SessionService) EvictIdle(now time.Time, idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, e := range s.controllers {
		if now.Sub(e.ctrl.LastActive()) > idle {
			e.ctrl.Unmount()
			delete(s.controllers, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.Debug("Evicted idle schedules", zap.Int("count", evicted))
	}
	return evicted
}

// SweepNotices drops expired notices and returns the users whose notice went away.
func (s *SessionService) SweepNotices() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var swept []int64
	for id, e := range s.controllers {
		if e.ctrl.SweepNotice() {
			swept = append(swept, id)
		}
	}
	return swept
}

func (s *SessionService) drop(telegramID int64) {
	s.mu.Lock()
	e, ok := s.controllers[telegramID]
	delete(s.controllers, telegramID)
	s.mu.Unlock()

	if ok {
		e.ctrl.Unmount()
	}
}

// onTokenExpired forgets every session holding the rejected token. The controller that
// saw the 401 finishes its call and shows its own notice; the next action asks the user
// to sign in again.
func (s *SessionService) onTokenExpired(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), expiredCleanupTimeout)
	defer cancel()

	ids, err := s.store.DeleteByToken(ctx, token)
	if err != nil {
		s.logger.Error("Failed to delete expired sessions", zap.Error(err))
	}

	s.mu.Lock()
	for id, e := range s.controllers {
		if e.token == token {
			delete(s.controllers, id)
		}
	}
	s.mu.Unlock()

	s.logger.Info("Session expired", zap.Int("sessions", len(ids)))
}
