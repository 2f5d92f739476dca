package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/records-service/internal/model"
	"github.com/iliyamo/records-service/internal/queue"
	"github.com/iliyamo/records-service/internal/repository"
)

// memStore is an in-memory stand-in for the three SQL repositories.  It
// shares one lock so cascading deletes behave like the real schema.
type memStore struct {
	mu      sync.Mutex
	nextID  uint64
	users   map[uint64]model.User
	tokens  map[uint64]model.RefreshToken
	records map[uint64]model.Record
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[uint64]model.User{},
		tokens:  map[uint64]model.RefreshToken{},
		records: map[uint64]model.Record{},
	}
}

func (m *memStore) id() uint64 { m.nextID++; return m.nextID }

type memUsers struct{ *memStore }
type memTokens struct{ *memStore }
type memRecords struct{ *memStore }

func (m memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	u.ID = m.id()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = *u
	return nil
}

func (m memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m memUsers) List(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memUsers) Update(_ context.Context, id uint64, p repository.UserPatch) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	if p.Email != nil {
		for _, other := range m.users {
			if other.ID != id && other.Email == *p.Email {
				return model.User{}, repository.ErrEmailExists
			}
		}
		u.Email = *p.Email
	}
	if p.FirstName != nil {
		u.FirstName = p.FirstName
	}
	if p.LastName != nil {
		u.LastName = p.LastName
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	m.users[id] = u
	return u, nil
}

func (m memUsers) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	for tid, t := range m.tokens {
		if t.UserID == id {
			delete(m.tokens, tid)
		}
	}
	for rid, r := range m.records {
		if r.AuthorID == id {
			delete(m.records, rid)
		}
	}
	return nil
}

func (m memTokens) Create(_ context.Context, userID uint64, hash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.tokens[id] = model.RefreshToken{ID: id, UserID: userID, TokenHash: hash, ExpiresAt: exp, CreatedAt: time.Now().UTC()}
	return nil
}

func (m memTokens) FindCandidates(_ context.Context, userID uint64) ([]model.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.RefreshToken
	for _, t := range m.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m memTokens) Consume(_ context.Context, id uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[id]; !ok {
		return false, nil
	}
	delete(m.tokens, id)
	return true, nil
}

func (m memTokens) ConsumeByHash(_ context.Context, userID uint64, hash string, notExpiredAt *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.tokens {
		if t.UserID != userID || t.TokenHash != hash {
			continue
		}
		if notExpiredAt != nil && !t.ExpiresAt.After(*notExpiredAt) {
			continue
		}
		delete(m.tokens, id)
		return true, nil
	}
	return false, nil
}

func (m memTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.tokens {
		if t.UserID == userID {
			delete(m.tokens, id)
		}
	}
	return nil
}

func (m memTokens) count(userID uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tokens {
		if t.UserID == userID {
			n++
		}
	}
	return n
}

func (m memTokens) expireAll(userID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.tokens {
		if t.UserID == userID {
			t.ExpiresAt = time.Now().UTC().Add(-time.Minute)
			m.tokens[id] = t
		}
	}
}

func (m memRecords) Create(_ context.Context, rec *model.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = m.id()
	rec.CreatedAt = time.Now().UTC()
	m.records[rec.ID] = *rec
	return nil
}

func (m memRecords) author(id uint64) *model.AuthorInfo {
	u := m.users[id]
	return &model.AuthorInfo{Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

func (m memRecords) GetByID(_ context.Context, id uint64, withAuthor bool) (model.RecordWithAuthor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return model.RecordWithAuthor{}, repository.ErrNotFound
	}
	out := model.RecordWithAuthor{Record: r}
	if withAuthor {
		out.Author = m.author(r.AuthorID)
	}
	return out, nil
}

func (m memRecords) ListAll(_ context.Context) ([]model.RecordWithAuthor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.RecordWithAuthor
	for _, r := range m.records {
		out = append(out, model.RecordWithAuthor{Record: r, Author: m.author(r.AuthorID)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m memRecords) ListByAuthor(_ context.Context, authorID uint64) ([]model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Record
	for _, r := range m.records {
		if r.AuthorID == authorID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m memRecords) Update(_ context.Context, id uint64, p repository.RecordPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Content != nil {
		r.Content = *p.Content
	}
	m.records[id] = r
	return nil
}

func (m memRecords) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

// mockPublisher records published events.
type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, ev queue.AuthEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func eventKind(kind string) interface{} {
	return mock.MatchedBy(func(ev queue.AuthEvent) bool { return ev.Kind == kind })
}
