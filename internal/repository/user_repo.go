package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"threedays/internal/model"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts a new user.
func (r *UserRepository) CreateUser(ctx context.Context, u *model.User) error {
	query := `
        INSERT INTO users (email, password_hash, timezone, notifications_opt_in, created_at)
        VALUES ($1, $2, $3, $4, NOW())
        RETURNING id, created_at
    `
	return r.db.QueryRow(ctx, query,
		u.Email, u.PasswordHash, u.Timezone, u.NotificationsOptIn,
	).Scan(&u.ID, &u.CreatedAt)
}

// FindByEmail returns a user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
        SELECT id, email, password_hash, timezone, notifications_opt_in, created_at
        FROM users
        WHERE email = $1
    `
	var u model.User
	err := r.db.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Timezone, &u.NotificationsOptIn, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
