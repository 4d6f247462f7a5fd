// Package domain contains core domain types for the BallIQ front end.
package domain

import (
	"time"
)

// Account is a registered user as held by the account store.
type Account struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	TeamName     string    `json:"team_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the authenticated user attached to a session.
type Identity struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}
