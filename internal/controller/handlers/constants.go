package handlers

import (
	"regexp"
	"time"
)

// Sign-in input limits.
const (
	EmailMaxLength    = 254
	PasswordMaxLength = 128

	// loginTimeout bounds the call to the auth backend.
	loginTimeout = 15 * time.Second
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
