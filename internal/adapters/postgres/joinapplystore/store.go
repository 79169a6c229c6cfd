// Package joinapplystore is the Postgres implementation of the join
// application store.
package joinapplystore

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/tripleclub/travel-group-api/internal/adapters/postgres"
	"github.com/tripleclub/travel-group-api/internal/domain"
	"github.com/tripleclub/travel-group-api/internal/ports/out/joinapplystore"
)

const applyColumns = `id, user_id, group_id, status, approved_at, rejected_at, canceled_at, created_at, updated_at`

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Create(ctx context.Context, groupID domain.GroupID, userID domain.UserID, now time.Time) (domain.JoinApply, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO join_apply (user_id, group_id, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$4)
		RETURNING `+applyColumns+`
	`, userID, groupID, string(domain.ApplyPending), now.UTC())

	a, err := scanApply(row)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode && pe.ConstraintName == "uk_join_apply_group_user" {
			return domain.JoinApply{}, joinapplystore.ErrDuplicate
		}
		return domain.JoinApply{}, err
	}
	return a, nil
}

func (s *Store) GetByGroupAndUser(ctx context.Context, groupID domain.GroupID, userID domain.UserID) (domain.JoinApply, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+applyColumns+` FROM join_apply
		WHERE group_id = $1 AND user_id = $2
	`, groupID, userID)
	a, err := scanApply(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.JoinApply{}, joinapplystore.ErrNotFound
	}
	return a, err
}

func (s *Store) Update(ctx context.Context, a domain.JoinApply, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE join_apply
		SET status = $2, approved_at = $3, rejected_at = $4, canceled_at = $5, updated_at = $6
		WHERE id = $1
	`, a.ID, string(a.Status), a.ApprovedAt, a.RejectedAt, a.CanceledAt, now.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return joinapplystore.ErrNotFound
	}
	return nil
}

func (s *Store) ListPendingByGroup(ctx context.Context, groupID domain.GroupID) ([]domain.JoinApply, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+applyColumns+` FROM join_apply
		WHERE group_id = $1 AND status = $2
		ORDER BY id
	`, groupID, string(domain.ApplyPending))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.JoinApply, 0)
	for rows.Next() {
		a, err := scanApply(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanApply(row pgx.Row) (domain.JoinApply, error) {
	var a domain.JoinApply
	var status string
	err := row.Scan(
		&a.ID, &a.UserID, &a.GroupID, &status,
		&a.ApprovedAt, &a.RejectedAt, &a.CanceledAt,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.JoinApply{}, err
	}
	a.Status = domain.ApplyStatus(status)
	return a, nil
}
