// Package service implements the session core (signup, signin, refresh
// rotation, logout) and the ownership rules for records and users.  Storage
// is reached through the interfaces in ports.go so tests can substitute
// in-memory fakes.
package service

import "errors"

// Error taxonomy surfaced to the HTTP boundary.
var (
	// ErrConflict: the email is already registered.
	ErrConflict = errors.New("user already exists")
	// ErrAccessDenied: bad credentials or an unusable refresh token.  The
	// message is identical for every cause so callers cannot enumerate users
	// or learn why a refresh token was refused.
	ErrAccessDenied = errors.New("Access Denied")
	// ErrForbidden: authenticated but neither owner nor privileged.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound: the entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated: missing, expired or malformed access token.
	ErrUnauthenticated = errors.New("unauthorized")
	// ErrInvalidInput: a request field failed validation.
	ErrInvalidInput = errors.New("invalid input")
)
