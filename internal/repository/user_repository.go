package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/records-service/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,password_hash,role,first_name,last_name,created_at,updated_at"

// UserPatch lists the mutable profile fields.  Nil fields are left unchanged.
type UserPatch struct {
	Email     *string
	FirstName *string
	LastName  *string
	Role      *model.Role
}

// Create inserts u and fills in its ID and timestamps.  The password hash
// must already be computed.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, first_name, last_name, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
		u.Email, u.PasswordHash, string(u.Role), u.FirstName, u.LastName, now, now)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

// GetByEmail fetches a user by exact email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
	u, err := scanUser(row)
	return u, notFound(err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	u, err := scanUser(row)
	return u, notFound(err)
}

// List returns every user ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update applies p to the user and returns the updated row.
func (r *UserRepo) Update(ctx context.Context, id uint64, p UserPatch) (model.User, error) {
	sets := []string{"updated_at=?"}
	args := []any{time.Now().UTC()}
	if p.Email != nil {
		sets = append(sets, "email=?")
		args = append(args, *p.Email)
	}
	if p.FirstName != nil {
		sets = append(sets, "first_name=?")
		args = append(args, *p.FirstName)
	}
	if p.LastName != nil {
		sets = append(sets, "last_name=?")
		args = append(args, *p.LastName)
	}
	if p.Role != nil {
		sets = append(sets, "role=?")
		args = append(args, string(*p.Role))
	}
	args = append(args, id)

	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ",")+" WHERE id=?", args...)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.User{}, err
	}
	if n == 0 {
		return model.User{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes the user.  Records and refresh tokens go with it through
// ON DELETE CASCADE.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (model.User, error) {
	var (
		u         model.User
		role      string
		firstName sql.NullString
		lastName  sql.NullString
	)
	err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &firstName, &lastName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role)
	u.FirstName = nullToPtr(firstName)
	u.LastName = nullToPtr(lastName)
	return u, nil
}

func nullToPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
