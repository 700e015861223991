// Package model defines the domain models.
package model

import "time"

// User is a registered account. PasswordHash is only populated by lookups
// that need it for credential checks and is never serialized.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string `json:"-"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
