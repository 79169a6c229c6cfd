package itinerarystore

import (
	"context"
	"errors"
	"time"

	"github.com/tripleclub/travel-group-api/internal/domain"
)

// ErrNotFound indicates the requested itinerary does not exist.
var ErrNotFound = errors.New("itinerary not found")

// Store persists travel itineraries.
type Store interface {
	// CreateWithLeader persists the itinerary together with a LEADER link
	// for the creating user, atomically.
	CreateWithLeader(ctx context.Context, it domain.Itinerary, leader domain.UserID, now time.Time) (domain.ItineraryID, error)

	GetByID(ctx context.Context, id domain.ItineraryID) (domain.Itinerary, error)

	// ListByGroup returns non-deleted itineraries ordered by id ascending.
	ListByGroup(ctx context.Context, groupID domain.GroupID) ([]domain.Itinerary, error)
}
