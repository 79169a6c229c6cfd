// Package groupstore is the Postgres implementation of the group store.
package groupstore

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tripleclub/travel-group-api/internal/domain"
	"github.com/tripleclub/travel-group-api/internal/ports/out/groupstore"
)

const groupColumns = `id, group_kind, name, description, thumbnail_url, member_limit, current_member_count, version, created_at, updated_at`

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) CreateWithOwner(ctx context.Context, g domain.Group, owner domain.UserID, now time.Time) (domain.GroupID, error) {
	var id domain.GroupID
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO travel_group (
				group_kind, name, description, thumbnail_url,
				member_limit, current_member_count, version,
				created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,0,$7,$7)
			RETURNING id
		`,
			string(g.Kind), g.Name, g.Description, g.ThumbnailURL,
			g.MemberLimit, g.CurrentMemberCount, now.UTC(),
		).Scan(&id)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO user_group (user_id, group_id, role, status, joined_at)
			VALUES ($1,$2,$3,$4,$5)
		`, owner, id, string(domain.RoleOwner), string(domain.MembershipJoined), now.UTC())
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) GetByID(ctx context.Context, id domain.GroupID) (domain.Group, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+groupColumns+` FROM travel_group WHERE id = $1`, id)
	return scanGroup(row)
}

func (s *Store) ListPublic(ctx context.Context, cursor domain.GroupID, limit int) ([]domain.Group, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+groupColumns+`
		FROM travel_group
		WHERE group_kind = $1 AND ($2::bigint = 0 OR id < $2)
		ORDER BY id DESC
		LIMIT $3
	`, string(domain.GroupKindPublic), cursor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Group, 0, limit)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) UpdateVersioned(ctx context.Context, g domain.Group, now time.Time) (domain.Group, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE travel_group
		SET group_kind = $3, name = $4, description = $5, thumbnail_url = $6,
		    member_limit = $7, version = version + 1, updated_at = $8
		WHERE id = $1 AND version = $2
		RETURNING `+groupColumns+`
	`,
		g.ID, g.Version,
		string(g.Kind), g.Name, g.Description, g.ThumbnailURL,
		g.MemberLimit, now.UTC(),
	)
	updated, err := scanGroup(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, groupstore.ErrNotFound) {
		return domain.Group{}, err
	}

	// Zero rows: distinguish a stale version from a missing group.
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM travel_group WHERE id = $1)`, g.ID).Scan(&exists); err != nil {
		return domain.Group{}, err
	}
	if exists {
		return domain.Group{}, groupstore.ErrVersionConflict
	}
	return domain.Group{}, groupstore.ErrNotFound
}

func (s *Store) DeleteOwned(ctx context.Context, id domain.GroupID, requester domain.UserID) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := lockGroup(ctx, tx, id); err != nil {
			return err
		}
		if err := requireOwner(ctx, tx, id, requester); err != nil {
			return err
		}

		// Children first, group row last.
		if _, err := tx.Exec(ctx, `DELETE FROM join_apply WHERE group_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_group WHERE group_id = $1`, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM travel_group WHERE id = $1`, id)
		return err
	})
}

func (s *Store) ApproveMember(ctx context.Context, id domain.GroupID, approver, applicant domain.UserID, now time.Time) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var memberLimit, memberCount int
		err := tx.QueryRow(ctx, `
			SELECT member_limit, current_member_count
			FROM travel_group WHERE id = $1
			FOR UPDATE
		`, id).Scan(&memberLimit, &memberCount)
		if errors.Is(err, pgx.ErrNoRows) {
			return groupstore.ErrNotFound
		}
		if err != nil {
			return err
		}

		if err := requireOwner(ctx, tx, id, approver); err != nil {
			return err
		}

		var applyID int64
		err = tx.QueryRow(ctx, `
			SELECT id FROM join_apply
			WHERE group_id = $1 AND user_id = $2 AND status = $3
		`, id, applicant, string(domain.ApplyPending)).Scan(&applyID)
		if errors.Is(err, pgx.ErrNoRows) {
			return groupstore.ErrNoApplication
		}
		if err != nil {
			return err
		}

		if memberCount >= memberLimit {
			return groupstore.ErrGroupFull
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO user_group (user_id, group_id, role, status, joined_at)
			VALUES ($1,$2,$3,$4,$5)
		`, applicant, id, string(domain.RoleMember), string(domain.MembershipJoined), now.UTC()); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE travel_group
			SET current_member_count = current_member_count + 1, updated_at = $2
			WHERE id = $1
		`, id, now.UTC()); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM join_apply WHERE id = $1`, applyID)
		return err
	})
}

func (s *Store) RemoveMember(ctx context.Context, id domain.GroupID, member domain.UserID, now time.Time) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := lockGroup(ctx, tx, id); err != nil {
			return err
		}

		var membershipID int64
		var role string
		err := tx.QueryRow(ctx, `
			SELECT id, role FROM user_group
			WHERE group_id = $1 AND user_id = $2 AND status = $3
		`, id, member, string(domain.MembershipJoined)).Scan(&membershipID, &role)
		if errors.Is(err, pgx.ErrNoRows) {
			return groupstore.ErrNotMember
		}
		if err != nil {
			return err
		}
		if domain.Role(role) == domain.RoleOwner {
			return groupstore.ErrOwnerCannotLeave
		}

		if _, err := tx.Exec(ctx, `
			UPDATE user_group SET status = $2, left_at = $3 WHERE id = $1
		`, membershipID, string(domain.MembershipLeft), now.UTC()); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE travel_group
			SET current_member_count = current_member_count - 1, updated_at = $2
			WHERE id = $1
		`, id, now.UTC())
		return err
	})
}

func lockGroup(ctx context.Context, tx pgx.Tx, id domain.GroupID) error {
	var locked domain.GroupID
	err := tx.QueryRow(ctx, `SELECT id FROM travel_group WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return groupstore.ErrNotFound
	}
	return err
}

func requireOwner(ctx context.Context, tx pgx.Tx, id domain.GroupID, userID domain.UserID) error {
	var isOwner bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_group
			WHERE group_id = $1 AND user_id = $2 AND role = $3
		)
	`, id, userID, string(domain.RoleOwner)).Scan(&isOwner)
	if err != nil {
		return err
	}
	if !isOwner {
		return groupstore.ErrNotOwner
	}
	return nil
}

func scanGroup(row pgx.Row) (domain.Group, error) {
	var g domain.Group
	var kind string
	err := row.Scan(
		&g.ID, &kind, &g.Name, &g.Description, &g.ThumbnailURL,
		&g.MemberLimit, &g.CurrentMemberCount, &g.Version,
		&g.CreatedAt, &g.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Group{}, groupstore.ErrNotFound
	}
	if err != nil {
		return domain.Group{}, err
	}
	g.Kind = domain.GroupKind(kind)
	return g, nil
}
