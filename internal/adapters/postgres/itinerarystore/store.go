// Package itinerarystore is the Postgres implementation of the itinerary
// store.
package itinerarystore

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tripleclub/travel-group-api/internal/domain"
	"github.com/tripleclub/travel-group-api/internal/ports/out/itinerarystore"
)

const itineraryColumns = `id, group_id, title, start_at, end_at, description, thumbnail_url, member_limit, member_count, deleted, created_at, updated_at`

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) CreateWithLeader(ctx context.Context, it domain.Itinerary, leader domain.UserID, now time.Time) (domain.ItineraryID, error) {
	var id domain.ItineraryID
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO travel_itinerary (
				group_id, title, start_at, end_at, description,
				thumbnail_url, member_limit, member_count, deleted,
				created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,FALSE,$9,$9)
			RETURNING id
		`,
			it.GroupID, it.Title, it.StartAt.UTC(), it.EndAt.UTC(), it.Description,
			it.ThumbnailURL, it.MemberLimit, it.MemberCount, now.UTC(),
		).Scan(&id)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO user_travel_itinerary (itinerary_id, user_id, role)
			VALUES ($1,$2,$3)
		`, id, leader, string(domain.ItineraryRoleLeader))
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) GetByID(ctx context.Context, id domain.ItineraryID) (domain.Itinerary, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+itineraryColumns+` FROM travel_itinerary
		WHERE id = $1 AND deleted = FALSE
	`, id)
	return scanItinerary(row)
}

func (s *Store) ListByGroup(ctx context.Context, groupID domain.GroupID) ([]domain.Itinerary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+itineraryColumns+` FROM travel_itinerary
		WHERE group_id = $1 AND deleted = FALSE
		ORDER BY id
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Itinerary, 0)
	for rows.Next() {
		it, err := scanItinerary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func scanItinerary(row pgx.Row) (domain.Itinerary, error) {
	var it domain.Itinerary
	err := row.Scan(
		&it.ID, &it.GroupID, &it.Title, &it.StartAt, &it.EndAt,
		&it.Description, &it.ThumbnailURL, &it.MemberLimit, &it.MemberCount,
		&it.Deleted, &it.CreatedAt, &it.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Itinerary{}, itinerarystore.ErrNotFound
	}
	return it, err
}
