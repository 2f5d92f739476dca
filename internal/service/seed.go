package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/records-service/internal/model"
	"github.com/iliyamo/records-service/internal/repository"
	"github.com/iliyamo/records-service/internal/utils"
)

type seedUser struct {
	email, password, first, last string
	role                         model.Role
	records                      []model.Record
}

var seedUsers = []seedUser{
	{
		email: "admin@example.com", password: "admin123", first: "Super", last: "Admin",
		role: model.RoleAdmin,
		records: []model.Record{
			{Title: "Admin Record 1", Content: "This is the first admin record"},
			{Title: "Admin Record 2", Content: "This is the second admin record"},
		},
	},
	{
		email: "user@example.com", password: "user123", first: "John", last: "Doe",
		role: model.RoleUser,
		records: []model.Record{
			{Title: "User Record 1", Content: "This is a record by a regular user"},
		},
	},
}

// Seed creates the demo admin and user accounts with their records.  Users
// that already exist are left alone, records included, so running it twice
// is harmless.  It returns the number of users created.
func Seed(ctx context.Context, users UserStore, records RecordStore, cost int) (int, error) {
	created := 0
	for _, su := range seedUsers {
		_, err := users.GetByEmail(ctx, su.email)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return created, fmt.Errorf("lookup %s: %w", su.email, err)
		}
		hash, err := utils.HashPassword(su.password, cost)
		if err != nil {
			return created, fmt.Errorf("hash password: %w", err)
		}
		first, last := su.first, su.last
		u := model.User{Email: su.email, PasswordHash: hash, Role: su.role, FirstName: &first, LastName: &last}
		if err := users.Create(ctx, &u); err != nil {
			return created, fmt.Errorf("create %s: %w", su.email, err)
		}
		created++
		for _, r := range su.records {
			r.AuthorID = u.ID
			if err := records.Create(ctx, &r); err != nil {
				return created, fmt.Errorf("create record for %s: %w", su.email, err)
			}
		}
	}
	return created, nil
}
