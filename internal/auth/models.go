package auth

import (
	"time"

	"github.com/rahal-app/rahal-backend/internal/profile"
)

// SessionLifetime is the fixed lifetime of a session artifact and its
// cookies.
const SessionLifetime = 5 * 24 * time.Hour

// SessionResult is what a successful login produces. Role is empty when the
// subject has no usable role yet.
type SessionResult struct {
	UID       string
	Session   string
	Role      profile.Role
	ExpiresIn time.Duration
}

type createSessionRequest struct {
	IDToken string `json:"idToken"`
}

type createSessionResponse struct {
	Success bool   `json:"success"`
	UID     string `json:"uid"`
}

type successResponse struct {
	Success bool `json:"success"`
}
