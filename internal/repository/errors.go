// Package repository implements SQL persistence for users, refresh tokens
// and records.  Queries use `?` placeholders and portable SQL so the same
// repositories run on MySQL in production and SQLite locally and in tests.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a lookup by id or email matches no row.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when inserting or updating a user would
// violate the unique email constraint.
var ErrEmailExists = errors.New("email already exists")

// isDuplicate reports whether err is a unique-key violation from either
// supported driver.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
