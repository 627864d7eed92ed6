package models

// Level is the administrative level of a location.
type Level string

const (
	LevelCountry Level = "country"
	LevelState   Level = "state"
	LevelCity    Level = "city"
)

// Location represents a country, state or city with aggregate counters.
type Location struct {
	// ID is the unique identifier for the location (UUID format).
	ID string `json:"id"`

	Level Level  `json:"level"`
	Name  string `json:"name"`

	// ParentID is the enclosing location (state for a city, country for a state).
	ParentID string `json:"parent_id,omitempty"`

	TotalPhotos       int `json:"total_photos"`
	TotalLitter       int `json:"total_litter"`
	TotalContributors int `json:"total_contributors"`

	CreatedAt int64 `json:"created_at"`

	// Categories holds verified litter per category. Loaded on demand.
	Categories map[string]int `json:"categories,omitempty"`
}
