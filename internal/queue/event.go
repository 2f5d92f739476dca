// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// Auth event kinds.
const (
	EventSignup        = "signup"
	EventSignin        = "signin"
	EventSigninFailed  = "signin_failed"
	EventRefresh       = "refresh"
	EventRefreshDenied = "refresh_denied"
	EventLogout        = "logout"
	EventSessionRevoke = "session_revoked"
	EventUserDeleted   = "user_deleted"
)

// AuthEvent is published after every session state change and every denied
// credential exchange.  Downstream consumers use it as an audit trail; it
// never carries secrets or token material.
type AuthEvent struct {
	Kind       string    `json:"kind"`
	UserID     uint64    `json:"user_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	SessionID  uint64    `json:"session_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
