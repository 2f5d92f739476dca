package service

import (
	"context"
	"time"

	"github.com/iliyamo/records-service/internal/model"
	"github.com/iliyamo/records-service/internal/queue"
	"github.com/iliyamo/records-service/internal/repository"
)

// UserStore is the user repository.  Lookups report repository.ErrNotFound
// and inserts report repository.ErrEmailExists.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id uint64, p repository.UserPatch) (model.User, error)
	Delete(ctx context.Context, id uint64) error
}

// RefreshStore holds hashed refresh tokens.
type RefreshStore interface {
	Create(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	FindCandidates(ctx context.Context, userID uint64) ([]model.RefreshToken, error)
	Consume(ctx context.Context, id uint64) (bool, error)
	ConsumeByHash(ctx context.Context, userID uint64, tokenHash string, notExpiredAt *time.Time) (bool, error)
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// RecordStore is the record repository.
type RecordStore interface {
	Create(ctx context.Context, rec *model.Record) error
	GetByID(ctx context.Context, id uint64, withAuthor bool) (model.RecordWithAuthor, error)
	ListAll(ctx context.Context) ([]model.RecordWithAuthor, error)
	ListByAuthor(ctx context.Context, authorID uint64) ([]model.Record, error)
	Update(ctx context.Context, id uint64, p repository.RecordPatch) error
	Delete(ctx context.Context, id uint64) error
}

// EventPublisher receives auth audit events.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.AuthEvent) error
}

var (
	_ UserStore      = (*repository.UserRepo)(nil)
	_ RefreshStore   = (*repository.TokenRepo)(nil)
	_ RecordStore    = (*repository.RecordRepo)(nil)
	_ EventPublisher = (*queue.Publisher)(nil)
	_ EventPublisher = queue.Discard{}
	_ EventPublisher = (*queue.Async)(nil)
)
