// Package membershipstore is the Postgres read side of memberships.
package membershipstore

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tripleclub/travel-group-api/internal/domain"
	"github.com/tripleclub/travel-group-api/internal/ports/out/membershipstore"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) ExistsWithRole(ctx context.Context, groupID domain.GroupID, userID domain.UserID, role domain.Role) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_group
			WHERE group_id = $1 AND user_id = $2 AND role = $3
		)
	`, groupID, userID, string(role)).Scan(&exists)
	return exists, err
}

func (s *Store) ExistsJoined(ctx context.Context, groupID domain.GroupID, userID domain.UserID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_group
			WHERE group_id = $1 AND user_id = $2 AND status = $3
		)
	`, groupID, userID, string(domain.MembershipJoined)).Scan(&exists)
	return exists, err
}

func (s *Store) ListJoined(ctx context.Context, groupID domain.GroupID) ([]membershipstore.JoinedMember, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT ug.user_id, u.nickname, ug.role, ug.joined_at
		FROM user_group ug
		JOIN users u ON u.id = ug.user_id
		WHERE ug.group_id = $1 AND ug.status = $2
		ORDER BY ug.id
	`, groupID, string(domain.MembershipJoined))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]membershipstore.JoinedMember, 0)
	for rows.Next() {
		var m membershipstore.JoinedMember
		var role string
		if err := rows.Scan(&m.UserID, &m.Nickname, &role, &m.JoinedAt); err != nil {
			return nil, err
		}
		m.Role = domain.Role(role)
		out = append(out, m)
	}
	return out, rows.Err()
}
