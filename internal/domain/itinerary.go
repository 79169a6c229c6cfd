package domain

import (
	"strings"
	"time"
)

const (
	MinItineraryMemberLimit = 1
	MaxItineraryMemberLimit = 20
)

// ItineraryRole is a user's role on an itinerary.
type ItineraryRole string

const ItineraryRoleLeader ItineraryRole = "LEADER"

// Itinerary is a travel plan recorded under a group.
type Itinerary struct {
	ID      ItineraryID
	GroupID GroupID

	Title        string
	StartAt      time.Time
	EndAt        time.Time
	Description  string
	ThumbnailURL string
	MemberLimit  int
	MemberCount  int
	Deleted      bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewItinerary validates and builds an itinerary. The creator counts as the
// first participant.
func NewItinerary(groupID GroupID, title string, startAt, endAt time.Time, description, thumbnailURL string, memberLimit int) (Itinerary, error) {
	if strings.TrimSpace(title) == "" {
		return Itinerary{}, &FieldError{Field: "title", Reason: "must be non-blank"}
	}
	if startAt.IsZero() {
		return Itinerary{}, &FieldError{Field: "startAt", Reason: "must be set"}
	}
	if endAt.IsZero() {
		return Itinerary{}, &FieldError{Field: "endAt", Reason: "must be set"}
	}
	if !startAt.Before(endAt) {
		return Itinerary{}, &FieldError{Field: "startAt", Reason: "must be before endAt"}
	}
	if memberLimit < MinItineraryMemberLimit || memberLimit > MaxItineraryMemberLimit {
		return Itinerary{}, &FieldError{Field: "memberLimit", Reason: "must be between 1 and 20"}
	}
	return Itinerary{
		GroupID:      groupID,
		Title:        title,
		StartAt:      startAt,
		EndAt:        endAt,
		Description:  description,
		ThumbnailURL: thumbnailURL,
		MemberLimit:  memberLimit,
		MemberCount:  1,
	}, nil
}
