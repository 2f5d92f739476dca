package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/records-service/internal/metrics"
	"github.com/iliyamo/records-service/internal/model"
	"github.com/iliyamo/records-service/internal/queue"
	"github.com/iliyamo/records-service/internal/repository"
	"github.com/iliyamo/records-service/internal/utils"
)

// TokenPair is what every successful credential exchange returns.  The raw
// refresh token goes to the client; only its hash is stored.
type TokenPair struct {
	Access  utils.IssuedToken
	Refresh utils.IssuedToken
}

// SignupInput carries the registration fields.  Names are optional.
type SignupInput struct {
	Email     string
	Password  string
	FirstName *string
	LastName  *string
}

// SessionConfig tunes the session service.
type SessionConfig struct {
	BcryptCost int
	// EnforceRefreshExpiry makes Refresh ignore stored rows whose expires_at
	// has passed, even if the row was never consumed.
	EnforceRefreshExpiry bool
}

// SessionService issues and rotates token pairs.  A session lineage moves
// from unauthenticated to authenticated on signup/signin, is rotated on every
// refresh (the presented token is consumed and a new one stored), and ends
// when logout revokes every stored token of the user.
type SessionService struct {
	users   UserStore
	tokens  RefreshStore
	access  *utils.TokenCodec
	refresh *utils.TokenCodec
	events  EventPublisher
	cfg     SessionConfig
	now     func() time.Time

	// verified against when the email is unknown so both failure paths cost
	// one bcrypt comparison
	dummyHash string
}

// NewSessionService wires the session core.  events may be nil.
func NewSessionService(users UserStore, tokens RefreshStore, access, refresh *utils.TokenCodec, events EventPublisher, cfg SessionConfig) *SessionService {
	if users == nil || tokens == nil || access == nil || refresh == nil {
		panic("nil dependency passed to NewSessionService")
	}
	if events == nil {
		events = queue.Discard{}
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = utils.DefaultBcryptCost
	}
	dummy, err := utils.HashPassword("dummy-password-for-timing", cfg.BcryptCost)
	if err != nil {
		panic(fmt.Sprintf("session: bcrypt cost %d: %v", cfg.BcryptCost, err))
	}
	return &SessionService{
		users:     users,
		tokens:    tokens,
		access:    access,
		refresh:   refresh,
		events:    events,
		cfg:       cfg,
		now:       time.Now,
		dummyHash: dummy,
	}
}

// Signup registers a new user with role "user" and opens its first session.
func (s *SessionService) Signup(ctx context.Context, in SignupInput) (TokenPair, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return TokenPair{}, ErrInvalidInput
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		metrics.ObserveAuth("signup", metrics.ResultDenied)
		return TokenPair{}, ErrConflict
	} else if !errors.Is(err, repository.ErrNotFound) {
		metrics.ObserveAuth("signup", metrics.ResultError)
		return TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		metrics.ObserveAuth("signup", metrics.ResultDenied)
		return TokenPair{}, ErrInvalidInput
	}
	if err != nil {
		metrics.ObserveAuth("signup", metrics.ResultError)
		return TokenPair{}, fmt.Errorf("hash password: %w", err)
	}
	u := model.User{
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		// a concurrent signup for the same email lost the race on the unique key
		if errors.Is(err, repository.ErrEmailExists) {
			metrics.ObserveAuth("signup", metrics.ResultDenied)
			return TokenPair{}, ErrConflict
		}
		metrics.ObserveAuth("signup", metrics.ResultError)
		return TokenPair{}, fmt.Errorf("create user: %w", err)
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		metrics.ObserveAuth("signup", metrics.ResultError)
		return TokenPair{}, err
	}
	metrics.ObserveAuth("signup", metrics.ResultOK)
	s.emit(ctx, queue.AuthEvent{Kind: queue.EventSignup, UserID: u.ID, Email: u.Email})
	return pair, nil
}

// Signin verifies credentials and opens an additional session.  Existing
// sessions of the user stay valid.
func (s *SessionService) Signin(ctx context.Context, email, password string) (TokenPair, error) {
	email = strings.TrimSpace(email)
	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		utils.VerifyPassword(s.dummyHash, password)
		return TokenPair{}, s.denySignin(ctx, 0, email)
	case err != nil:
		metrics.ObserveAuth("signin", metrics.ResultError)
		return TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return TokenPair{}, s.denySignin(ctx, u.ID, email)
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		metrics.ObserveAuth("signin", metrics.ResultError)
		return TokenPair{}, err
	}
	metrics.ObserveAuth("signin", metrics.ResultOK)
	s.emit(ctx, queue.AuthEvent{Kind: queue.EventSignin, UserID: u.ID, Email: u.Email})
	return pair, nil
}

func (s *SessionService) denySignin(ctx context.Context, userID uint64, email string) error {
	metrics.ObserveAuth("signin", metrics.ResultDenied)
	s.emit(ctx, queue.AuthEvent{Kind: queue.EventSigninFailed, UserID: userID, Email: email})
	return ErrAccessDenied
}

// Logout revokes every refresh token of the user.  It succeeds when the
// user has no sessions.
func (s *SessionService) Logout(ctx context.Context, userID uint64) error {
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		metrics.ObserveAuth("logout", metrics.ResultError)
		return fmt.Errorf("revoke tokens: %w", err)
	}
	metrics.ObserveAuth("logout", metrics.ResultOK)
	s.emit(ctx, queue.AuthEvent{Kind: queue.EventLogout, UserID: userID})
	return nil
}

// Refresh redeems raw for a new pair.  The stored row matching raw is
// deleted by a single conditional delete, so a replayed, unknown, foreign or
// concurrently redeemed token yields ErrAccessDenied.  Other sessions of the
// user are untouched.
func (s *SessionService) Refresh(ctx context.Context, userID uint64, raw string) (TokenPair, error) {
	u, err := s.users.GetByID(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return TokenPair{}, s.denyRefresh(ctx, userID)
	case err != nil:
		metrics.ObserveAuth("refresh", metrics.ResultError)
		return TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}
	if raw == "" {
		return TokenPair{}, s.denyRefresh(ctx, userID)
	}

	var cutoff *time.Time
	if s.cfg.EnforceRefreshExpiry {
		now := s.now().UTC()
		cutoff = &now
	}
	ok, err := s.tokens.ConsumeByHash(ctx, u.ID, utils.HashRefreshRaw(raw), cutoff)
	if err != nil {
		metrics.ObserveAuth("refresh", metrics.ResultError)
		return TokenPair{}, fmt.Errorf("consume refresh token: %w", err)
	}
	if !ok {
		return TokenPair{}, s.denyRefresh(ctx, userID)
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		metrics.ObserveAuth("refresh", metrics.ResultError)
		return TokenPair{}, err
	}
	metrics.ObserveAuth("refresh", metrics.ResultOK)
	s.emit(ctx, queue.AuthEvent{Kind: queue.EventRefresh, UserID: u.ID, Email: u.Email})
	return pair, nil
}

func (s *SessionService) denyRefresh(ctx context.Context, userID uint64) error {
	metrics.ObserveAuth("refresh", metrics.ResultDenied)
	s.emit(ctx, queue.AuthEvent{Kind: queue.EventRefreshDenied, UserID: userID})
	return ErrAccessDenied
}

// Sessions lists the user's stored refresh tokens (one per device), expired
// ones included.
func (s *SessionService) Sessions(ctx context.Context, userID uint64) ([]model.RefreshToken, error) {
	return s.tokens.FindCandidates(ctx, userID)
}

// RevokeSession ends one of the caller's sessions.  Ids that do not belong
// to the caller are reported as ErrNotFound.
func (s *SessionService) RevokeSession(ctx context.Context, userID, sessionID uint64) error {
	cands, err := s.tokens.FindCandidates(ctx, userID)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	owned := false
	for _, c := range cands {
		if c.ID == sessionID {
			owned = true
			break
		}
	}
	if !owned {
		return ErrNotFound
	}
	ok, err := s.tokens.Consume(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("consume session: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	s.emit(ctx, queue.AuthEvent{Kind: queue.EventSessionRevoke, UserID: userID, SessionID: sessionID})
	return nil
}

// issuePair signs an access and a refresh token for u and stores the
// refresh token's hash with the token's own expiry.
func (s *SessionService) issuePair(ctx context.Context, u model.User) (TokenPair, error) {
	id := utils.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
	access, err := s.access.Sign(id)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.refresh.Sign(id)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	if err := s.tokens.Create(ctx, u.ID, utils.HashRefreshRaw(refresh.Token), refresh.Expires); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *SessionService) emit(ctx context.Context, ev queue.AuthEvent) {
	ev.OccurredAt = s.now().UTC()
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Printf("session: publish %s event: %v", ev.Kind, err)
	}
}
