package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/records-service/internal/model"
)

func farFuture() time.Time { return time.Now().UTC().Add(7 * 24 * time.Hour) }

func TestTokenRepoFindCandidatesIncludesExpired(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	u := createUser(t, NewUserRepo(db), "a@x.com", model.RoleUser)
	repo := NewTokenRepo(db)

	require.NoError(t, repo.Create(ctx, u.ID, "live", farFuture()))
	require.NoError(t, repo.Create(ctx, u.ID, "stale", time.Now().UTC().Add(-time.Hour)))

	cands, err := repo.FindCandidates(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, cands, 2)
	hashes := []string{cands[0].TokenHash, cands[1].TokenHash}
	assert.ElementsMatch(t, []string{"live", "stale"}, hashes)
}

func TestTokenRepoConsumeByHashIsSingleUse(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	u := createUser(t, NewUserRepo(db), "a@x.com", model.RoleUser)
	repo := NewTokenRepo(db)
	require.NoError(t, repo.Create(ctx, u.ID, "h1", farFuture()))
	require.NoError(t, repo.Create(ctx, u.ID, "h2", farFuture()))

	ok, err := repo.ConsumeByHash(ctx, u.ID, "h1", nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ConsumeByHash(ctx, u.ID, "h1", nil)
	require.NoError(t, err)
	assert.False(t, ok, "second redemption must fail")

	cands, err := repo.FindCandidates(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, cands, 1, "other sessions stay valid")
	assert.Equal(t, "h2", cands[0].TokenHash)
}

func TestTokenRepoConsumeByHashWrongUser(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepo(db)
	a := createUser(t, users, "a@x.com", model.RoleUser)
	b := createUser(t, users, "b@x.com", model.RoleUser)
	repo := NewTokenRepo(db)
	require.NoError(t, repo.Create(ctx, a.ID, "h1", farFuture()))

	ok, err := repo.ConsumeByHash(ctx, b.ID, "h1", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenRepoConsumeByHashExpiryCutoff(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	u := createUser(t, NewUserRepo(db), "a@x.com", model.RoleUser)
	repo := NewTokenRepo(db)
	require.NoError(t, repo.Create(ctx, u.ID, "stale", time.Now().UTC().Add(-time.Minute)))

	now := time.Now().UTC()
	ok, err := repo.ConsumeByHash(ctx, u.ID, "stale", &now)
	require.NoError(t, err)
	assert.False(t, ok, "expired row is not matched when a cutoff is given")

	ok, err = repo.ConsumeByHash(ctx, u.ID, "stale", nil)
	require.NoError(t, err)
	assert.True(t, ok, "without a cutoff the expired row still matches")
}

func TestTokenRepoConcurrentConsumeOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	u := createUser(t, NewUserRepo(db), "a@x.com", model.RoleUser)
	repo := NewTokenRepo(db)
	require.NoError(t, repo.Create(ctx, u.ID, "race", farFuture()))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.ConsumeByHash(ctx, u.ID, "race", nil)
			if err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestTokenRepoConsumeAndRevokeAll(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	u := createUser(t, NewUserRepo(db), "a@x.com", model.RoleUser)
	repo := NewTokenRepo(db)
	require.NoError(t, repo.Create(ctx, u.ID, "h1", farFuture()))
	require.NoError(t, repo.Create(ctx, u.ID, "h2", farFuture()))
	require.NoError(t, repo.Create(ctx, u.ID, "h3", farFuture()))

	cands, err := repo.FindCandidates(ctx, u.ID)
	require.NoError(t, err)
	ok, err := repo.Consume(ctx, cands[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Consume(ctx, cands[0].ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.RevokeAllForUser(ctx, u.ID))
	require.NoError(t, repo.RevokeAllForUser(ctx, u.ID), "revoking with no rows is fine")
	cands, err = repo.FindCandidates(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestTokenRepoDeleteExpired(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	u := createUser(t, NewUserRepo(db), "a@x.com", model.RoleUser)
	repo := NewTokenRepo(db)
	require.NoError(t, repo.Create(ctx, u.ID, "live", farFuture()))
	require.NoError(t, repo.Create(ctx, u.ID, "stale1", time.Now().UTC().Add(-time.Hour)))
	require.NoError(t, repo.Create(ctx, u.ID, "stale2", time.Now().UTC().Add(-2*time.Hour)))

	n, err := repo.DeleteExpired(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	cands, err := repo.FindCandidates(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "live", cands[0].TokenHash)
}
