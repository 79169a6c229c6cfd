// Package travels implements itinerary planning under a group.
package travels

import (
	"context"
	"errors"
	"time"

	"github.com/tripleclub/travel-group-api/internal/domain"
	clockport "github.com/tripleclub/travel-group-api/internal/ports/out/clock"
	"github.com/tripleclub/travel-group-api/internal/ports/out/groupstore"
	"github.com/tripleclub/travel-group-api/internal/ports/out/itinerarystore"
	"github.com/tripleclub/travel-group-api/internal/ports/out/membershipstore"
	"github.com/tripleclub/travel-group-api/internal/ports/out/userstore"
)

// SaveItineraryInput carries the fields for a new itinerary.
type SaveItineraryInput struct {
	GroupID      domain.GroupID
	Title        string
	StartAt      time.Time
	EndAt        time.Time
	Description  string
	ThumbnailURL string
	MemberLimit  int
}

type Service struct {
	itineraries itinerarystore.Store
	groups      groupstore.Store
	memberships membershipstore.Store
	users       userstore.Store
	clk         clockport.Clock
}

func NewService(itineraries itinerarystore.Store, groups groupstore.Store, memberships membershipstore.Store, users userstore.Store, clk clockport.Clock) *Service {
	return &Service{
		itineraries: itineraries,
		groups:      groups,
		memberships: memberships,
		users:       users,
		clk:         clk,
	}
}

// SaveItinerary records an itinerary under a group. Only active members may
// plan travel for a group; the creator becomes the itinerary's LEADER.
func (s *Service) SaveItinerary(ctx context.Context, in SaveItineraryInput, userID domain.UserID) (domain.ItineraryID, error) {
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, &Error{Status: 404, Code: "TRAVEL_USER_NOT_FOUND", Message: "user not found"}
	}

	if _, err := s.groups.GetByID(ctx, in.GroupID); err != nil {
		if errors.Is(err, groupstore.ErrNotFound) {
			return 0, &Error{Status: 404, Code: "TRAVEL_GROUP_NOT_FOUND", Message: "group not found"}
		}
		return 0, err
	}

	joined, err := s.memberships.ExistsJoined(ctx, in.GroupID, userID)
	if err != nil {
		return 0, err
	}
	if !joined {
		return 0, &Error{Status: 403, Code: "TRAVEL_SAVE_FORBIDDEN", Message: "only group members may save itineraries"}
	}

	it, err := domain.NewItinerary(in.GroupID, in.Title, in.StartAt, in.EndAt, in.Description, in.ThumbnailURL, in.MemberLimit)
	if err != nil {
		var fe *domain.FieldError
		if errors.As(err, &fe) {
			return 0, &Error{
				Status:  422,
				Code:    "VALIDATION_ERROR",
				Message: "invalid itinerary fields",
				Details: map[string]any{fe.Field: fe.Reason},
			}
		}
		return 0, err
	}

	return s.itineraries.CreateWithLeader(ctx, it, userID, s.clk.Now())
}

// ListByGroup returns a group's itineraries for active members.
func (s *Service) ListByGroup(ctx context.Context, groupID domain.GroupID, userID domain.UserID) ([]domain.Itinerary, error) {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, groupstore.ErrNotFound) {
			return nil, &Error{Status: 404, Code: "TRAVEL_GROUP_NOT_FOUND", Message: "group not found"}
		}
		return nil, err
	}

	joined, err := s.memberships.ExistsJoined(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !joined {
		return nil, &Error{Status: 403, Code: "TRAVEL_SAVE_FORBIDDEN", Message: "only group members may view itineraries"}
	}

	return s.itineraries.ListByGroup(ctx, groupID)
}
