package state

import "time"

// UserState is where the user is in the sign-in dialog.
type UserState string

const (
	StateNone             UserState = ""
	StateAwaitingEmail    UserState = "awaiting_email"
	StateAwaitingPassword UserState = "awaiting_password"
)

// DialogTTL is how long an untouched sign-in dialog stays open.
const DialogTTL = 10 * time.Minute

// Dialog is one user's sign-in progress.
type Dialog struct {
	Step      UserState
	Email     string
	UpdatedAt time.Time
}
