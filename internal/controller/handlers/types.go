package handlers

import (
	"github.com/Freeeeeet/drivingschool_bot/internal/controller/state"
	"github.com/Freeeeeet/drivingschool_bot/internal/service"
	"go.uber.org/zap"
)

// Handlers holds the dependencies of the command handlers.
type Handlers struct {
	sessions     *service.SessionService
	stateManager *state.Manager
	screens      *state.Screens
	logger       *zap.Logger
}

func NewHandlers(
	sessions *service.SessionService,
	stateManager *state.Manager,
	screens *state.Screens,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		sessions:     sessions,
		stateManager: stateManager,
		screens:      screens,
		logger:       logger,
	}
}
