package auth

import (
	"context"

	"github.com/mmynk/littertag/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password, passkeys, OAuth, etc.)
// without changing the service layer code.
type Authenticator interface {
	// NewUser validates the credential and returns an unsaved user carrying
	// whatever the implementation needs to authenticate them later (for
	// passwords, the hash). The caller persists it, so registration can
	// share a transaction with the side effects it triggers.
	NewUser(email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	// For passwords: check length, complexity, etc.
	// For other methods: validate format, etc.
	ValidateCredential(credential string) error
}
