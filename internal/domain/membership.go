package domain

import "time"

// Role is a member's role within a group. Exactly one OWNER membership is
// created per group, at group creation.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleMember Role = "MEMBER"
)

// MembershipStatus tracks whether a membership is active.
type MembershipStatus string

const (
	MembershipJoined MembershipStatus = "JOINED"
	MembershipLeft   MembershipStatus = "LEFT"
)

// Membership links a user to a group. A user holds at most one JOINED
// membership per group.
type Membership struct {
	ID      MembershipID
	UserID  UserID
	GroupID GroupID
	Role    Role
	Status  MembershipStatus

	JoinedAt time.Time
	LeftAt   *time.Time
}
