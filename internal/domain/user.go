package domain

import "time"

// User is the account record used as the login identity.
// Inactive users are invisible to authentication.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
