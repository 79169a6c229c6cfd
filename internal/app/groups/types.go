package groups

import "github.com/tripleclub/travel-group-api/internal/domain"

// GroupInput carries the caller-editable group fields. Create and Update
// accept the same shape; updates rewrite every field.
type GroupInput struct {
	Kind         domain.GroupKind
	Name         string
	Description  string
	ThumbnailURL string
	MemberLimit  int
}

// CursorPage is one page of the public group listing.
type CursorPage struct {
	Items      []domain.Group
	NextCursor domain.GroupID
	HasNext    bool
}

// MemberInfo is one active member in a group detail view.
type MemberInfo struct {
	UserID   domain.UserID
	Nickname string
	Owner    bool
}

// Detail is the full group view with its active members.
type Detail struct {
	Group   domain.Group
	Members []MemberInfo
}
