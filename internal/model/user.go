package model

import "time"

// Role is the coarse authorization tier embedded in token claims.  Only two
// tiers exist: regular users and administrators.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. Handlers define separate response types so that the
// password hash never leaves the repository layer.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         Role      // users.role
	FirstName    *string   // users.first_name (nullable)
	LastName     *string   // users.last_name (nullable)
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// row is one active session (device) of a user.  The plain token is
// never stored; only its SHA‑256 hash.  Rows are deleted when the
// token is redeemed or the user logs out.
type RefreshToken struct {
	ID        uint64    // refresh_tokens.id
	UserID    uint64    // refresh_tokens.user_id
	TokenHash string    // refresh_tokens.token_hash
	ExpiresAt time.Time // refresh_tokens.expires_at
	CreatedAt time.Time // refresh_tokens.created_at
}
