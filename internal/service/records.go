package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/records-service/internal/authz"
	"github.com/iliyamo/records-service/internal/model"
	"github.com/iliyamo/records-service/internal/repository"
)

// RecordPatch is a partial record update.  Nil fields are left unchanged.
type RecordPatch = repository.RecordPatch

// RecordService applies the record ownership rules: admins see and manage
// every record, everyone else only their own.
type RecordService struct {
	records RecordStore
	policy  authz.Policy
}

func NewRecordService(records RecordStore) *RecordService {
	return &RecordService{records: records, policy: authz.OwnerOrAdmin}
}

// Create stores a record authored by the caller.
func (s *RecordService) Create(ctx context.Context, actor authz.Subject, title, content string) (model.Record, error) {
	if strings.TrimSpace(title) == "" {
		return model.Record{}, ErrInvalidInput
	}
	rec := model.Record{Title: title, Content: content, AuthorID: actor.UserID}
	if err := s.records.Create(ctx, &rec); err != nil {
		return model.Record{}, fmt.Errorf("create record: %w", err)
	}
	return rec, nil
}

// List returns every record with author info for privileged callers and
// only the caller's own records otherwise.  Both are newest first.
func (s *RecordService) List(ctx context.Context, actor authz.Subject) ([]model.RecordWithAuthor, error) {
	if s.policy.IsPrivileged(actor) {
		return s.records.ListAll(ctx)
	}
	own, err := s.records.ListByAuthor(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]model.RecordWithAuthor, 0, len(own))
	for _, r := range own {
		out = append(out, model.RecordWithAuthor{Record: r})
	}
	return out, nil
}

// Get loads one record.  Existence is checked before ownership, so a
// missing id is ErrNotFound for every caller.
func (s *RecordService) Get(ctx context.Context, actor authz.Subject, id uint64) (model.RecordWithAuthor, error) {
	rec, err := s.records.GetByID(ctx, id, s.policy.IsPrivileged(actor))
	if errors.Is(err, repository.ErrNotFound) {
		return model.RecordWithAuthor{}, ErrNotFound
	}
	if err != nil {
		return model.RecordWithAuthor{}, err
	}
	if !s.policy.Allow(actor, rec.AuthorID) {
		return model.RecordWithAuthor{}, ErrForbidden
	}
	return rec, nil
}

// Update changes title and/or content of a record the caller may manage.
func (s *RecordService) Update(ctx context.Context, actor authz.Subject, id uint64, p RecordPatch) (model.RecordWithAuthor, error) {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return model.RecordWithAuthor{}, ErrInvalidInput
	}
	if _, err := s.Get(ctx, actor, id); err != nil {
		return model.RecordWithAuthor{}, err
	}
	if err := s.records.Update(ctx, id, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.RecordWithAuthor{}, ErrNotFound
		}
		return model.RecordWithAuthor{}, fmt.Errorf("update record: %w", err)
	}
	return s.Get(ctx, actor, id)
}

// Delete removes a record the caller may manage.
func (s *RecordService) Delete(ctx context.Context, actor authz.Subject, id uint64) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.records.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}
