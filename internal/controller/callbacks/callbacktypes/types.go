package callbacktypes

import (
	"context"

	"github.com/Freeeeeet/drivingschool_bot/internal/controller/state"
	"github.com/Freeeeeet/drivingschool_bot/internal/schedule"
	"go.uber.org/zap"
)

// Sessions hands out the schedule controller of a signed-in user.
type Sessions interface {
	Controller(ctx context.Context, telegramID int64) (*schedule.Controller, error)
	Active(telegramID int64) (*schedule.Controller, bool)
}

// Handler carries the dependencies shared by every callback handler.
type Handler struct {
	Sessions     Sessions
	StateManager *state.Manager
	Screens      *state.Screens
	Logger       *zap.Logger
}
