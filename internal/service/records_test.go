package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/records-service/internal/authz"
	"github.com/iliyamo/records-service/internal/model"
)

type recordFixture struct {
	svc   *RecordService
	alice authz.Subject
	bob   authz.Subject
	admin authz.Subject
}

func newRecordFixture(t *testing.T) recordFixture {
	t.Helper()
	store := newMemStore()
	users := memUsers{store}
	mk := func(email string, role model.Role) authz.Subject {
		u := model.User{Email: email, PasswordHash: "h", Role: role}
		require.NoError(t, users.Create(context.Background(), &u))
		return authz.Subject{UserID: u.ID, Role: role}
	}
	return recordFixture{
		svc:   NewRecordService(memRecords{store}),
		alice: mk("alice@x.com", model.RoleUser),
		bob:   mk("bob@x.com", model.RoleUser),
		admin: mk("admin@x.com", model.RoleAdmin),
	}
}

func TestRecordListFiltersByOwnership(t *testing.T) {
	f := newRecordFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, f.alice, "a1", "c")
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.bob, "b1", "c")
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.alice, "a2", "c")
	require.NoError(t, err)

	own, err := f.svc.List(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, own, 2)
	for _, r := range own {
		assert.Equal(t, f.alice.UserID, r.AuthorID)
		assert.Nil(t, r.Author, "non-admins do not get author info")
	}

	all, err := f.svc.List(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, r := range all {
		require.NotNil(t, r.Author)
		assert.NotEmpty(t, r.Author.Email)
	}
}

func TestRecordGetAndDeletePolicy(t *testing.T) {
	f := newRecordFixture(t)
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, f.alice, "a1", "c")
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.bob, rec.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, f.svc.Delete(ctx, f.bob, rec.ID), ErrForbidden)

	got, err := f.svc.Get(ctx, f.alice, rec.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Author)

	got, err = f.svc.Get(ctx, f.admin, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Author)
	assert.Equal(t, "alice@x.com", got.Author.Email)

	require.NoError(t, f.svc.Delete(ctx, f.admin, rec.ID))
	_, err = f.svc.Get(ctx, f.alice, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordNotFoundCheckedBeforeOwnership(t *testing.T) {
	f := newRecordFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.Delete(ctx, f.bob, 12345), ErrNotFound)
	_, err := f.svc.Get(ctx, f.bob, 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordUpdate(t *testing.T) {
	f := newRecordFixture(t)
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, f.alice, "a1", "c")
	require.NoError(t, err)

	title := "renamed"
	got, err := f.svc.Update(ctx, f.alice, rec.ID, RecordPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	assert.Equal(t, "c", got.Content)

	_, err = f.svc.Update(ctx, f.bob, rec.ID, RecordPatch{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)

	blank := " "
	_, err = f.svc.Update(ctx, f.alice, rec.ID, RecordPatch{Title: &blank})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRecordCreateValidation(t *testing.T) {
	f := newRecordFixture(t)
	_, err := f.svc.Create(context.Background(), f.alice, "", "c")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
