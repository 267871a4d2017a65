package entity

import (
	"time"
)

// User is the aggregate root for the account domain.
// PasswordHash holds a bcrypt digest; it is empty for accounts created
// through an external identity provider, and such accounts cannot log in
// with a first-party password.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	AvatarURL    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
