package domain

import "time"

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// User is the profile the OAuth flow provisions. This core only reads it;
// nil pointers mean the provider did not supply the field.
type User struct {
	ID       UserID
	Nickname string
	Email    string

	Gender      *Gender
	Birth       *time.Time
	Description *string
	ProfileURL  *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
