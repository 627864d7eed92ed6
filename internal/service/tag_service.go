package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/mmynk/littertag/internal/events"
	"github.com/mmynk/littertag/internal/metrics"
	"github.com/mmynk/littertag/internal/models"
	"github.com/mmynk/littertag/internal/scoring"
	"github.com/mmynk/littertag/internal/storage"
)

// PreviousCustomTagsLimit caps the previous-custom-tags list.
const PreviousCustomTagsLimit = 100

// DateLayout is the format of DateRange bounds.
const DateLayout = "2006-01-02"

// DateRange bounds photo upload dates, inclusive. Empty means unbounded.
type DateRange struct {
	Start string `json:"start" validate:"omitempty,datetime=2006-01-02"`
	End   string `json:"end" validate:"omitempty,datetime=2006-01-02"`
}

// PhotoFilters narrow a select-all request.
type PhotoFilters struct {
	// ID matches photo IDs starting with this string.
	ID           string    `json:"id"`
	DateRange    DateRange `json:"dateRange"`
	Verification *int      `json:"verification" validate:"omitempty,min=0,max=2"`
}

// UnmarshalJSON accepts an empty array as "no filters", which is what
// clients send when nothing is filtered.
func (f *PhotoFilters) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("[]")) || bytes.Equal(trimmed, []byte("null")) {
		*f = PhotoFilters{}
		return nil
	}
	type plain PhotoFilters
	return json.Unmarshal(data, (*plain)(f))
}

// MaxSelectedIDs caps inclIds and exclIds in one tagging request.
const MaxSelectedIDs = 500

// TagSet maps category to item to quantity.
type TagSet map[string]map[string]int

// UnmarshalJSON accepts an empty array as "no tags", like PhotoFilters.
func (t *TagSet) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("[]")) || bytes.Equal(trimmed, []byte("null")) {
		*t = nil
		return nil
	}
	return json.Unmarshal(data, (*map[string]map[string]int)(t))
}

// AddTagsRequest applies the same tags to many photos.
type AddTagsRequest struct {
	SelectAll  bool         `json:"selectAll"`
	Filters    PhotoFilters `json:"filters"`
	InclIDs    []string     `json:"inclIds" validate:"omitempty,max=500,dive,required"`
	ExclIDs    []string     `json:"exclIds" validate:"omitempty,max=500,dive,required"`
	Tags       TagSet       `json:"tags"`
	CustomTags []string     `json:"custom_tags"`
}

// AddTagsResult reports what a tagging request changed.
type AddTagsResult struct {
	Photos   int `json:"photos"`
	Verified int `json:"verified"`
	XP       int `json:"xp"`
}

// TagService tags photos and awards the XP they earn.
type TagService struct {
	deps Deps
}

// NewTagService creates a TagService.
func NewTagService(deps Deps) *TagService {
	return &TagService{deps: deps.withDefaults()}
}

// filter resolves the photos a request targets. Verified photos are never
// targeted.
func (req *AddTagsRequest) filter(userID string) (storage.PhotoFilter, error) {
	verified := models.StageVerified
	f := storage.PhotoFilter{UserID: userID, MaxStage: &verified}

	if !req.SelectAll {
		if len(req.InclIDs) == 0 {
			return f, invalidf("no photos selected")
		}
		f.IDs = req.InclIDs
		return f, nil
	}

	f.ExcludeIDs = req.ExclIDs
	f.IDPrefix = req.Filters.ID
	if v := req.Filters.Verification; v != nil {
		stage := models.Stage(*v)
		f.Stage = &stage
	}
	if s := req.Filters.DateRange.Start; s != "" {
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return f, invalidf("dateRange.start: %v", err)
		}
		f.From = t.Unix()
	}
	if s := req.Filters.DateRange.End; s != "" {
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return f, invalidf("dateRange.end: %v", err)
		}
		f.To = t.Add(24*time.Hour).Unix() - 1
	}
	if f.From > 0 && f.To > 0 && f.From > f.To {
		return f, invalidf("dateRange.start is after dateRange.end")
	}
	return f, nil
}

// AddManyTagsToManyPhotos applies category tags and custom tags to the
// selected photos of userID.
//
// Each photo earns scoring.PhotoXP for the tags applied to it now. Photos
// move to StageTagged, or straight to StageVerified for users who no
// longer require verification, in which case TagsVerifiedByAdmin is
// dispatched for them. Tags, XP and listener effects commit together.
func (s *TagService) AddManyTagsToManyPhotos(ctx context.Context, userID string, req *AddTagsRequest) (*AddTagsResult, error) {
	log := s.deps.Logger.With("user_id", userID)
	log.Info("AddManyTagsToManyPhotos request received",
		"select_all", req.SelectAll,
		"incl_count", len(req.InclIDs),
		"excl_count", len(req.ExclIDs),
		"custom_tags", len(req.CustomTags),
	)

	if len(req.InclIDs) > MaxSelectedIDs || len(req.ExclIDs) > MaxSelectedIDs {
		return nil, invalidf("at most %d photo ids per request", MaxSelectedIDs)
	}
	tags, err := scoring.FlattenTags(req.Tags)
	if err != nil {
		return nil, invalid(err)
	}
	customTags, err := scoring.NormalizeCustomTags(req.CustomTags)
	if err != nil {
		return nil, invalid(err)
	}
	if len(tags) == 0 && len(customTags) == 0 {
		return nil, invalidf("tags or custom_tags required")
	}
	filter, err := req.filter(userID)
	if err != nil {
		return nil, err
	}

	result := &AddTagsResult{}
	var award *xpAward
	var fired []events.Event

	err = s.deps.Store.WithTx(ctx, func(q storage.Queries) error {
		result, award, fired = &AddTagsResult{}, nil, nil

		user, err := q.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		award = newXPAward(user.ID, user.DisplayName, "tagging")

		photos, err := q.ListPhotos(ctx, filter)
		if err != nil {
			return err
		}

		for _, photo := range photos {
			xp, ev, err := s.tagPhoto(ctx, q, user, photo, tags, customTags)
			if err != nil {
				return fmt.Errorf("photo %s: %w", photo.ID, err)
			}
			award.add(xp, photo.CountryID, photo.TeamID)
			result.Photos++
			if ev != nil {
				result.Verified++
				fired = append(fired, ev)
			}
		}

		result.XP = award.total
		if award.total == 0 {
			return nil
		}
		return q.AddUserXP(ctx, user.ID, award.total)
	})
	if err != nil {
		log.Error("AddManyTagsToManyPhotos failed", "error", err)
		return nil, err
	}

	metrics.PhotosTagged.Add(float64(result.Photos))
	s.deps.apply(ctx, award)
	s.deps.Events.Publish(ctx, fired...)

	log.Info("Photos tagged", "photos", result.Photos, "verified", result.Verified, "xp", result.XP)
	return result, nil
}

// tagPhoto applies tags to one photo and returns the XP earned and, for
// trusted users, the verification event dispatched.
func (s *TagService) tagPhoto(ctx context.Context, q storage.Queries, user *models.User, photo *models.Photo, tags []models.Tag, customTags []string) (int, events.Event, error) {
	for _, tag := range tags {
		if err := q.UpsertPhotoTag(ctx, photo.ID, tag); err != nil {
			return 0, nil, err
		}
	}

	added := 0
	for _, tag := range customTags {
		ok, err := q.AddCustomTag(ctx, photo.ID, tag)
		if err != nil {
			return 0, nil, err
		}
		if ok {
			added++
		}
	}

	// Quantities of tags set earlier may have been overwritten, so the
	// total comes from what is stored now.
	all, err := q.ListPhotoTags(ctx, photo.ID)
	if err != nil {
		return 0, nil, err
	}
	photo.Tags = all
	photo.TotalLitter = scoring.TotalLitter(all)

	photo.Stage = models.StageTagged
	if !user.VerificationRequired {
		photo.Stage = models.StageVerified
	}
	if err := q.UpdatePhotoTagging(ctx, photo.ID, photo.Stage, photo.TotalLitter); err != nil {
		return 0, nil, err
	}

	xp := scoring.PhotoXP(tags, added)
	if photo.Stage != models.StageVerified {
		return xp, nil, nil
	}

	ev := events.TagsVerifiedByAdmin{Photo: *photo, VerifiedBy: user.ID}
	if err := s.deps.Events.Dispatch(ctx, q, ev); err != nil {
		return 0, nil, err
	}
	return xp, ev, nil
}

// PreviousCustomTags returns the distinct custom tags userID has put on
// their own photos, in order of first use.
func (s *TagService) PreviousCustomTags(ctx context.Context, userID string) ([]string, error) {
	tags, err := s.deps.Store.ListPreviousCustomTags(ctx, userID, PreviousCustomTagsLimit)
	if err != nil {
		s.deps.Logger.Error("PreviousCustomTags failed", "user_id", userID, "error", err)
		return nil, err
	}
	return tags, nil
}
