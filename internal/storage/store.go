// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/littertag/internal/models"
)

var (
	// ErrNotFound is returned (wrapped) when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned (wrapped) when a write violates a uniqueness constraint.
	ErrConflict = errors.New("already exists")
)

// PhotoFilter selects a user's photos for bulk operations.
type PhotoFilter struct {
	// UserID restricts the query to one owner. Required.
	UserID string

	// IDs restricts the query to these photo IDs when non-empty.
	IDs []string

	// ExcludeIDs removes these photo IDs from the result.
	ExcludeIDs []string

	// IDPrefix matches photos whose ID starts with the given string.
	IDPrefix string

	// From and To bound CreatedAt (Unix seconds, inclusive). Zero means unbounded.
	From int64
	To   int64

	// Stage restricts to one verification stage when non-nil.
	Stage *models.Stage

	// MaxStage excludes photos at or beyond this stage when non-nil.
	MaxStage *models.Stage
}

// Queries is the set of persistence operations. It is implemented both by
// the store itself and by the transaction handed to WithTx, so listeners
// and services run the same code inside or outside a transaction.
type Queries interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	AddUserXP(ctx context.Context, userID string, delta int) error
	AddUserPhotos(ctx context.Context, userID string, delta int) error
	AddUserLitter(ctx context.Context, userID string, delta int) error
	SetUserActiveTeam(ctx context.Context, userID, teamID string) error
	SetUserVerificationRequired(ctx context.Context, userID string, required bool) error
	ListTopUsersByXP(ctx context.Context, limit int) ([]*models.User, error)

	// Photos
	CreatePhoto(ctx context.Context, photo *models.Photo) error
	GetPhoto(ctx context.Context, photoID string) (*models.Photo, error)
	ListPhotos(ctx context.Context, filter PhotoFilter) ([]*models.Photo, error)
	UpdatePhotoTagging(ctx context.Context, photoID string, stage models.Stage, totalLitter int) error
	SetPhotoResult(ctx context.Context, photoID, result string) error
	DeletePhoto(ctx context.Context, photoID string) error

	// Tags
	UpsertPhotoTag(ctx context.Context, photoID string, tag models.Tag) error
	ListPhotoTags(ctx context.Context, photoID string) ([]models.Tag, error)
	AddCustomTag(ctx context.Context, photoID, tag string) (bool, error)
	ListCustomTags(ctx context.Context, photoID string) ([]models.CustomTag, error)
	ListPreviousCustomTags(ctx context.Context, userID string, limit int) ([]string, error)

	// Locations
	FindOrCreateLocation(ctx context.Context, level models.Level, name, parentID string) (*models.Location, error)
	GetLocation(ctx context.Context, locationID string) (*models.Location, error)
	AddLocationTotals(ctx context.Context, locationID string, photos, litter int) error
	AddLocationContributor(ctx context.Context, locationID, userID string) (bool, error)
	RemoveLocationContributor(ctx context.Context, locationID, userID string) (bool, error)
	AddLocationCategory(ctx context.Context, locationID, category string, delta int) error
	IncrementLocationMonth(ctx context.Context, locationID, month string) error
	GetLocationMonth(ctx context.Context, locationID, month string) (int, error)

	// Teams
	CreateTeam(ctx context.Context, team *models.Team) error
	GetTeam(ctx context.Context, teamID string) (*models.Team, error)
	AddTeamMember(ctx context.Context, teamID, userID string) (bool, error)
	GetTeamMember(ctx context.Context, teamID, userID string) (*models.TeamMember, error)
	AddTeamTotals(ctx context.Context, teamID, userID string, photos, litter int) error

	// User statistics
	AddUserTimeSeries(ctx context.Context, userID, month string, photos, litter int) error
	ListUserTimeSeries(ctx context.Context, userID string) ([]models.TimeSeriesPoint, error)
	AddUserCategory(ctx context.Context, userID, category string, delta int) error
	ListUserCategories(ctx context.Context, userID string) ([]models.CategoryTotal, error)
}

// Store defines the storage backend used by the services.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	Queries

	// WithTx runs fn in a transaction. The transaction commits if fn returns
	// nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(q Queries) error) error

	// Close releases any resources held by the store.
	Close() error
}
