package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bookforge/internal/models"
)

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u models.User) (models.User, error) {
	err := r.db.Pool.QueryRow(ctx, `
INSERT INTO users (user_id, username, hashed_password)
VALUES ($1, $2, $3)
RETURNING user_id, username, hashed_password, created_at`,
		u.UserID, u.Username, u.HashedPassword,
	).Scan(&u.UserID, &u.Username, &u.HashedPassword, &u.CreatedAt)
	if err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (models.User, error) {
	var u models.User
	err := r.db.Pool.QueryRow(ctx, `
SELECT user_id, username, hashed_password, created_at
FROM users
WHERE username=$1`, username).
		Scan(&u.UserID, &u.Username, &u.HashedPassword, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user by username: %w", err)
	}
	return u, nil
}
