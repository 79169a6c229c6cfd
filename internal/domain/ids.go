package domain

// UserID identifies a user row.
type UserID int64

// GroupID identifies a travel group. IDs are bigserial surrogates, so id
// order matches insertion order; the public-group cursor relies on that.
type GroupID int64

// MembershipID identifies a user-group membership row.
type MembershipID int64

// JoinApplyID identifies a join application row.
type JoinApplyID int64

// ItineraryID identifies a travel itinerary.
type ItineraryID int64
