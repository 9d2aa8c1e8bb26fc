package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/movie-orders-api/internal/model"
)

// UserRepo adds the credential lookups to the generic users resource.
type UserRepo struct {
	*Resource
}

func NewUserRepo() *UserRepo { return &UserRepo{Resource: NewResource(Users)} }

// CountByEmail returns how many users hold the normalized email.
func (r *UserRepo) CountByEmail(ctx context.Context, q DBTX, email string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE emailAdd = ?",
		normalizeEmail(email)).Scan(&n)
	return n, err
}

// GetByEmail fetches a user including the password hash.
func (r *UserRepo) GetByEmail(ctx context.Context, q DBTX, email string) (model.User, error) {
	var u model.User
	err := q.QueryRowContext(ctx,
		"SELECT userID, userName, lastName, gender, age, emailAdd, userPass FROM users WHERE emailAdd = ? LIMIT 1",
		normalizeEmail(email)).Scan(&u.ID, &u.Name, &u.LastName, &u.Gender, &u.Age, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// Create inserts a user whose PasswordHash is already set and returns its ID.
func (r *UserRepo) Create(ctx context.Context, q DBTX, u model.User) (int64, error) {
	return r.Insert(ctx, q, map[string]any{
		"userName": u.Name,
		"lastName": u.LastName,
		"gender":   u.Gender,
		"age":      u.Age,
		"emailAdd": normalizeEmail(u.Email),
		"userPass": u.PasswordHash,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
