package models

import "time"

// Stage is the verification stage of a photo.
type Stage int

const (
	// StageUploaded is a photo with no tags yet.
	StageUploaded Stage = 0
	// StageTagged is a photo with tags awaiting admin verification.
	StageTagged Stage = 1
	// StageVerified is a photo whose tags have been accepted. Only verified
	// litter counts towards user, location and team litter totals.
	StageVerified Stage = 2
)

func (s Stage) String() string {
	switch s {
	case StageUploaded:
		return "uploaded"
	case StageTagged:
		return "tagged"
	case StageVerified:
		return "verified"
	default:
		return "unknown"
	}
}

// Photo represents an uploaded image and its tagging state.
type Photo struct {
	// ID is the unique identifier for the photo (UUID format).
	ID string `json:"id"`

	// UserID is the owner of the photo.
	UserID string `json:"user_id"`

	// Filename is the original name of the uploaded file.
	Filename string `json:"filename"`

	// BlobKey and ThumbnailKey locate the image and its thumbnail in blob storage.
	BlobKey      string `json:"blob_key"`
	ThumbnailKey string `json:"thumbnail_key"`

	// URL and ThumbnailURL are resolved from the keys when the photo is served.
	// They are not stored.
	URL          string `json:"url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`

	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`

	// CountryID, StateID and CityID reference Location rows.
	CountryID string `json:"country_id"`
	StateID   string `json:"state_id"`
	CityID    string `json:"city_id"`

	// TeamID is the team the photo was uploaded for. Empty if none.
	TeamID string `json:"team_id,omitempty"`

	// Stage is the verification stage.
	Stage Stage `json:"verification"`

	// TotalLitter is the sum of quantities across the photo's category tags.
	TotalLitter int `json:"total_litter"`

	// Result is the compiled summary of the photo's tags, written on verification.
	Result string `json:"result_string,omitempty"`

	// DateTaken is the Unix timestamp the picture was taken.
	DateTaken int64 `json:"date_taken"`

	// CreatedAt is the Unix timestamp when the photo was uploaded.
	CreatedAt int64 `json:"created_at"`

	// Tags and CustomTags are loaded on demand; storage list queries leave them empty.
	Tags       []Tag       `json:"tags,omitempty"`
	CustomTags []CustomTag `json:"custom_tags,omitempty"`
}

// LocationIDs returns the photo's location IDs from country down to city,
// skipping unset levels.
func (p *Photo) LocationIDs() []string {
	ids := make([]string, 0, 3)
	for _, id := range []string{p.CountryID, p.StateID, p.CityID} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Month returns the YYYY-MM bucket the photo was taken in, falling back to
// the upload time.
func (p *Photo) Month() string {
	ts := p.DateTaken
	if ts == 0 {
		ts = p.CreatedAt
	}
	return time.Unix(ts, 0).UTC().Format("2006-01")
}
