package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/records-service/internal/database"
	"github.com/iliyamo/records-service/internal/model"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, "sqlite"))
	return db
}

func createUser(t *testing.T, repo *UserRepo, email string, role model.Role) model.User {
	t.Helper()
	u := model.User{Email: email, PasswordHash: "hash", Role: role}
	require.NoError(t, repo.Create(context.Background(), &u))
	return u
}

func strPtr(s string) *string { return &s }
