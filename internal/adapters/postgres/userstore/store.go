// Package userstore is the Postgres implementation of the user store.
package userstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tripleclub/travel-group-api/internal/domain"
	"github.com/tripleclub/travel-group-api/internal/ports/out/userstore"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Create(ctx context.Context, u domain.User) (domain.UserID, error) {
	var gender *string
	if u.Gender != nil {
		g := string(*u.Gender)
		gender = &g
	}
	var id domain.UserID
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (nickname, email, gender, birth, description, profile_url, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`, u.Nickname, u.Email, gender, u.Birth, u.Description, u.ProfileURL, u.CreatedAt.UTC(), u.UpdatedAt.UTC()).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) GetByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	var u domain.User
	var gender *string
	err := s.pool.QueryRow(ctx, `
		SELECT id, nickname, email, gender, birth, description, profile_url, created_at, updated_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Nickname, &u.Email, &gender, &u.Birth, &u.Description, &u.ProfileURL, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, userstore.ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	if gender != nil {
		g := domain.Gender(*gender)
		u.Gender = &g
	}
	return u, nil
}

func (s *Store) Exists(ctx context.Context, id domain.UserID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
