package service

import (
	"context"
	"errors"
	"strings"

	"github.com/mmynk/littertag/internal/auth"
	"github.com/mmynk/littertag/internal/events"
	"github.com/mmynk/littertag/internal/models"
	"github.com/mmynk/littertag/internal/storage"
)

// Profile is the current user with their statistics.
type Profile struct {
	User       *models.User             `json:"user"`
	TimeSeries []models.TimeSeriesPoint `json:"time_series"`
	Categories []models.CategoryTotal   `json:"categories"`
}

// AuthService registers and logs in users.
type AuthService struct {
	deps          Deps
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
}

// NewAuthService creates a new authentication service.
func NewAuthService(deps Deps, authenticator auth.Authenticator, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{
		deps:          deps.withDefaults(),
		authenticator: authenticator,
		jwtManager:    jwtManager,
	}
}

// Register creates a new user account and returns it with a session token.
func (s *AuthService) Register(ctx context.Context, email, displayName, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.deps.Logger.Info("Register request", "email", email)

	user, err := s.authenticator.NewUser(email, strings.TrimSpace(displayName), password)
	if err != nil {
		return nil, "", err
	}

	ev := events.UserRegistered{User: *user}
	err = s.deps.Store.WithTx(ctx, func(q storage.Queries) error {
		if _, err := q.GetUserByEmail(ctx, email); err == nil {
			return auth.ErrEmailExists
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if err := q.CreateUser(ctx, user); err != nil {
			if errors.Is(err, storage.ErrConflict) {
				return auth.ErrEmailExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		s.deps.Logger.Error("Registration failed", "email", email, "error", err)
		return nil, "", err
	}

	// Registration listeners only send mail, so they run after commit and
	// never hold the write lock while a mailer is slow.
	if err := s.deps.Events.Dispatch(ctx, s.deps.Store, ev); err != nil {
		s.deps.Logger.Warn("UserRegistered listeners failed", "user_id", user.ID, "error", err)
	}
	s.deps.Events.Publish(ctx, ev)

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.deps.Logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, "", err
	}

	s.deps.Logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return user, token, nil
}

// Login authenticates a user and returns a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.deps.Logger.Info("Login request", "email", email)

	user, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		s.deps.Logger.Warn("Login failed", "email", email, "error", err)
		return nil, "", err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.deps.Logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, "", err
	}

	s.deps.Logger.Info("Login successful", "user_id", user.ID)
	return user, token, nil
}

// Me returns the profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.deps.Store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	series, err := s.deps.Store.ListUserTimeSeries(ctx, userID)
	if err != nil {
		return nil, err
	}
	categories, err := s.deps.Store.ListUserCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	if series == nil {
		series = []models.TimeSeriesPoint{}
	}
	if categories == nil {
		categories = []models.CategoryTotal{}
	}
	return &Profile{User: user, TimeSeries: series, Categories: categories}, nil
}
