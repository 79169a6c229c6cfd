package domain

import (
	"strings"
	"time"
)

// GroupKind controls who can see a group in the public listing.
type GroupKind string

const (
	GroupKindPublic  GroupKind = "PUBLIC"
	GroupKindPrivate GroupKind = "PRIVATE"
)

func (k GroupKind) Valid() bool {
	return k == GroupKindPublic || k == GroupKindPrivate
}

const (
	MinGroupMemberLimit = 1
	MaxGroupMemberLimit = 50
)

// Group is a travel group aggregate. Version is the optimistic counter the
// store compares on update; the store bumps it on every successful write.
type Group struct {
	ID                 GroupID
	Kind               GroupKind
	Name               string
	Description        string
	ThumbnailURL       string
	MemberLimit        int
	CurrentMemberCount int
	Version            int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewGroup validates and builds a group. The creator counts as the first
// member, so CurrentMemberCount starts at 1.
func NewGroup(kind GroupKind, name, description, thumbnailURL string, memberLimit int) (Group, error) {
	if err := validateGroupFields(kind, name, description, memberLimit); err != nil {
		return Group{}, err
	}
	return Group{
		Kind:               kind,
		Name:               name,
		Description:        description,
		ThumbnailURL:       thumbnailURL,
		MemberLimit:        memberLimit,
		CurrentMemberCount: 1,
	}, nil
}

// Update rewrites every mutable field after validation. Version is left
// untouched here; the store bumps it when the write commits.
func (g *Group) Update(kind GroupKind, name, description, thumbnailURL string, memberLimit int) error {
	if err := validateGroupFields(kind, name, description, memberLimit); err != nil {
		return err
	}
	g.Kind = kind
	g.Name = name
	g.Description = description
	g.ThumbnailURL = thumbnailURL
	g.MemberLimit = memberLimit
	return nil
}

func validateGroupFields(kind GroupKind, name, description string, memberLimit int) error {
	if !kind.Valid() {
		return &FieldError{Field: "groupKind", Reason: "must be PUBLIC or PRIVATE"}
	}
	if strings.TrimSpace(name) == "" {
		return &FieldError{Field: "name", Reason: "must be non-blank"}
	}
	if strings.TrimSpace(description) == "" {
		return &FieldError{Field: "description", Reason: "must be non-blank"}
	}
	if memberLimit < MinGroupMemberLimit || memberLimit > MaxGroupMemberLimit {
		return &FieldError{Field: "memberLimit", Reason: "must be between 1 and 50"}
	}
	return nil
}
