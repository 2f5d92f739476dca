package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/records-service/internal/model"
	"github.com/iliyamo/records-service/internal/queue"
	"github.com/iliyamo/records-service/internal/repository"
)

// UserPatch is a partial profile update.
type UserPatch = repository.UserPatch

// UserService backs the /users endpoints.  Role checks happen on the routes;
// this layer maps storage errors and validates input.
type UserService struct {
	users  UserStore
	tokens RefreshStore
	events EventPublisher
}

func NewUserService(users UserStore, tokens RefreshStore, events EventPublisher) *UserService {
	if events == nil {
		events = queue.Discard{}
	}
	return &UserService{users: users, tokens: tokens, events: events}
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id uint64) (model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// Update applies an admin edit.  A changed role only shows up in tokens
// issued after the change; access tokens already out keep the old role until
// they expire.
func (s *UserService) Update(ctx context.Context, id uint64, p UserPatch) (model.User, error) {
	if p.Role != nil && !p.Role.Valid() {
		return model.User{}, ErrInvalidInput
	}
	if p.Email != nil {
		e := strings.TrimSpace(*p.Email)
		if e == "" {
			return model.User{}, ErrInvalidInput
		}
		p.Email = &e
	}
	u, err := s.users.Update(ctx, id, p)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return model.User{}, ErrNotFound
	case errors.Is(err, repository.ErrEmailExists):
		return model.User{}, ErrConflict
	case err != nil:
		return model.User{}, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// Delete removes a user together with their records and sessions.
func (s *UserService) Delete(ctx context.Context, id uint64) error {
	// tokens first so a failed delete never leaves a deleted user's session alive
	if err := s.tokens.RevokeAllForUser(ctx, id); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	ev := queue.AuthEvent{Kind: queue.EventUserDeleted, UserID: id, OccurredAt: time.Now().UTC()}
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Printf("users: publish %s event: %v", ev.Kind, err)
	}
	return nil
}
