package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the authorization role of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id"`

	// Email is the user's email address (unique). Used for login.
	Email string `json:"email"`

	// DisplayName is the name shown on leaderboards and teams.
	DisplayName string `json:"display_name"`

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `json:"-"`

	// Role controls access to admin endpoints.
	Role Role `json:"role"`

	// XP is the experience point counter.
	XP int `json:"xp"`

	// TotalPhotos counts photos the user has uploaded and not deleted.
	TotalPhotos int `json:"total_photos"`

	// TotalLitter counts litter items on the user's verified photos.
	TotalLitter int `json:"total_litter"`

	// VerificationRequired is true for new users. When false the user is
	// trusted and tagged photos are verified immediately.
	VerificationRequired bool `json:"verification_required"`

	// ActiveTeamID is the team new uploads are credited to. Empty if none.
	ActiveTeamID string `json:"active_team_id,omitempty"`

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp of the last profile change.
	UpdatedAt int64 `json:"updated_at"`
}

// NewUser creates a user with a fresh ID and timestamps.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:                   uuid.New().String(),
		Email:                email,
		DisplayName:          displayName,
		PasswordHash:         passwordHash,
		Role:                 RoleUser,
		VerificationRequired: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// IsAdmin reports whether the user may verify and remove other users' photos.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
