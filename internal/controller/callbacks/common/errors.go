package common

import (
	"errors"

	"github.com/Freeeeeet/drivingschool_bot/internal/auth"
	"github.com/Freeeeeet/drivingschool_bot/internal/gateway"
	"github.com/Freeeeeet/drivingschool_bot/internal/grid"
	"github.com/Freeeeeet/drivingschool_bot/internal/schedule"
)

var (
	ErrNoMessage     = errors.New("no message in callback")
	ErrInvalidFormat = errors.New("invalid callback format")
)

// ErrorMessage maps an error to the text shown to the user.
func ErrorMessage(err error) string {
	if msg, ok := gateway.IsConflict(err); ok {
		return "⚠️ " + msg
	}

	switch {
	case errors.Is(err, auth.ErrNoSession):
		return "🔑 You are not signed in. Use /login first."
	case errors.Is(err, gateway.ErrInvalidCredentials):
		return "❌ Wrong email or password."
	case errors.Is(err, gateway.ErrUnauthorized):
		return "🔑 Your session has expired. Please /login again."
	case errors.Is(err, gateway.ErrTransport):
		return "📡 The booking service is unreachable. Try again later."
	case errors.Is(err, schedule.ErrStaffOnly):
		return "❌ Only instructors and admins can do this."
	case errors.Is(err, schedule.ErrNotMounted):
		return "❌ This schedule is closed. Open it again with /schedule."
	case errors.Is(err, grid.ErrOutOfGrid):
		return "❌ This slot is not on the calendar any more."
	case errors.Is(err, ErrNoMessage):
		return "❌ Could not process the message"
	case errors.Is(err, ErrInvalidFormat):
		return "❌ Invalid button data"
	default:
		return "❌ Something went wrong"
	}
}
