package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/littertag/internal/blob"
	"github.com/mmynk/littertag/internal/events"
	"github.com/mmynk/littertag/internal/imaging"
	"github.com/mmynk/littertag/internal/models"
	"github.com/mmynk/littertag/internal/scoring"
	"github.com/mmynk/littertag/internal/storage"
)

// UploadInput describes a photo upload.
type UploadInput struct {
	Filename string
	Data     io.Reader

	Lat float64
	Lon float64

	// Country, State and City name the photo's location. State and City
	// require Country.
	Country string
	State   string
	City    string

	// DateTaken is a Unix timestamp. Zero means unknown.
	DateTaken int64
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   models.Role
}

func (a Actor) isAdmin() bool { return a.Role == models.RoleAdmin }

// PhotoService handles the photo lifecycle: upload, verification, deletion.
type PhotoService struct {
	deps  Deps
	blobs blob.Store
}

// NewPhotoService creates a PhotoService storing images in blobs.
func NewPhotoService(deps Deps, blobs blob.Store) *PhotoService {
	return &PhotoService{deps: deps.withDefaults(), blobs: blobs}
}

// Upload stores the image and its thumbnail, then records the photo and
// credits the uploader.
func (s *PhotoService) Upload(ctx context.Context, userID string, in UploadInput) (*models.Photo, error) {
	log := s.deps.Logger.With("user_id", userID)
	log.Info("Upload request received", "filename", in.Filename)

	if in.Country == "" && (in.State != "" || in.City != "") {
		return nil, invalidf("country is required with state or city")
	}

	data, err := io.ReadAll(in.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, invalid(err)
	}
	thumb, err := img.Thumbnail()
	if err != nil {
		return nil, err
	}

	photo := &models.Photo{
		ID:        uuid.New().String(),
		UserID:    userID,
		Filename:  path.Base(in.Filename),
		Lat:       in.Lat,
		Lon:       in.Lon,
		DateTaken: in.DateTaken,
		Stage:     models.StageUploaded,
	}
	ext := ".jpg"
	if img.Format == "png" {
		ext = ".png"
	}
	photo.BlobKey = path.Join("photos", userID, photo.ID+ext)
	photo.ThumbnailKey = path.Join("thumbnails", userID, photo.ID+".jpg")

	if err := s.blobs.Put(ctx, photo.BlobKey, img.ContentType(), bytes.NewReader(data)); err != nil {
		return nil, err
	}
	if err := s.blobs.Put(ctx, photo.ThumbnailKey, "image/jpeg", bytes.NewReader(thumb)); err != nil {
		s.removeBlobs(ctx, photo)
		return nil, err
	}

	var award *xpAward
	var fired []events.Event
	err = s.deps.Store.WithTx(ctx, func(q storage.Queries) error {
		fired = nil

		user, err := q.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		if err := resolveLocation(ctx, q, photo, in); err != nil {
			return err
		}
		photo.TeamID = user.ActiveTeamID

		if err := q.CreatePhoto(ctx, photo); err != nil {
			return err
		}
		if err := q.AddUserPhotos(ctx, userID, 1); err != nil {
			return err
		}
		if err := q.AddUserXP(ctx, userID, scoring.UploadXP); err != nil {
			return err
		}

		for _, ev := range []events.Event{
			events.ImageUploaded{Photo: *photo},
			events.IncrementPhotoMonth{Photo: *photo},
		} {
			if err := s.deps.Events.Dispatch(ctx, q, ev); err != nil {
				return err
			}
			fired = append(fired, ev)
		}

		award = newXPAward(user.ID, user.DisplayName, "upload")
		award.add(scoring.UploadXP, photo.CountryID, photo.TeamID)
		return nil
	})
	if err != nil {
		log.Error("Upload failed", "error", err)
		s.removeBlobs(ctx, photo)
		return nil, err
	}

	s.deps.apply(ctx, award)
	s.deps.Events.Publish(ctx, fired...)
	s.resolveURLs(photo)

	log.Info("Photo uploaded", "photo_id", photo.ID, "country_id", photo.CountryID, "team_id", photo.TeamID)
	return photo, nil
}

// resolveLocation finds or creates the photo's country, state and city.
func resolveLocation(ctx context.Context, q storage.Queries, photo *models.Photo, in UploadInput) error {
	country := strings.TrimSpace(in.Country)
	if country == "" {
		return nil
	}
	c, err := q.FindOrCreateLocation(ctx, models.LevelCountry, country, "")
	if err != nil {
		return err
	}
	photo.CountryID = c.ID
	parent := c.ID

	if state := strings.TrimSpace(in.State); state != "" {
		st, err := q.FindOrCreateLocation(ctx, models.LevelState, state, c.ID)
		if err != nil {
			return err
		}
		photo.StateID = st.ID
		parent = st.ID
	}

	if city := strings.TrimSpace(in.City); city != "" {
		ci, err := q.FindOrCreateLocation(ctx, models.LevelCity, city, parent)
		if err != nil {
			return err
		}
		photo.CityID = ci.ID
	}
	return nil
}

// Delete removes a photo. Only its owner or an admin may delete it. The
// upload XP and counters are reversed, along with the photo's litter if it
// had been verified.
func (s *PhotoService) Delete(ctx context.Context, actor Actor, photoID string) error {
	log := s.deps.Logger.With("user_id", actor.UserID, "photo_id", photoID)
	log.Info("Delete request received")

	var photo *models.Photo
	var award *xpAward
	var fired []events.Event
	err := s.deps.Store.WithTx(ctx, func(q storage.Queries) error {
		var err error
		photo, err = q.GetPhoto(ctx, photoID)
		if err != nil {
			return err
		}
		if photo.UserID != actor.UserID && !actor.isAdmin() {
			return ErrForbidden
		}
		owner, err := q.GetUserByID(ctx, photo.UserID)
		if err != nil {
			return err
		}

		ev := events.ImageDeleted{Photo: *photo}
		if err := s.deps.Events.Dispatch(ctx, q, ev); err != nil {
			return err
		}
		fired = []events.Event{ev}

		if err := q.AddUserPhotos(ctx, owner.ID, -1); err != nil {
			return err
		}
		if err := q.AddUserXP(ctx, owner.ID, -scoring.UploadXP); err != nil {
			return err
		}
		if photo.Stage == models.StageVerified {
			if err := reverseVerifiedStats(ctx, q, photo); err != nil {
				return err
			}
		}
		if err := q.DeletePhoto(ctx, photo.ID); err != nil {
			return err
		}

		award = newXPAward(owner.ID, owner.DisplayName, "upload")
		award.add(-scoring.UploadXP, photo.CountryID, photo.TeamID)
		return nil
	})
	if err != nil {
		log.Error("Delete failed", "error", err)
		return err
	}

	s.removeBlobs(ctx, photo)
	s.deps.apply(ctx, award)
	s.deps.Events.Publish(ctx, fired...)

	log.Info("Photo deleted", "owner_id", photo.UserID)
	return nil
}

// reverseVerifiedStats undoes the owner statistics that verification added.
func reverseVerifiedStats(ctx context.Context, q storage.Queries, photo *models.Photo) error {
	if err := q.AddUserLitter(ctx, photo.UserID, -photo.TotalLitter); err != nil {
		return err
	}
	if err := q.AddUserTimeSeries(ctx, photo.UserID, photo.Month(), -1, -photo.TotalLitter); err != nil {
		return err
	}
	for category, total := range scoring.CategoryTotals(photo.Tags) {
		if err := q.AddUserCategory(ctx, photo.UserID, category, -total); err != nil {
			return err
		}
	}
	return nil
}

// VerifyByAdmin accepts the tags of a photo awaiting verification. When
// trustUser is set, the owner's future tagging skips verification.
func (s *PhotoService) VerifyByAdmin(ctx context.Context, adminID, photoID string, trustUser bool) (*models.Photo, error) {
	log := s.deps.Logger.With("admin_id", adminID, "photo_id", photoID)
	log.Info("VerifyByAdmin request received", "trust_user", trustUser)

	var photo *models.Photo
	var fired []events.Event
	err := s.deps.Store.WithTx(ctx, func(q storage.Queries) error {
		var err error
		photo, err = q.GetPhoto(ctx, photoID)
		if err != nil {
			return err
		}
		switch photo.Stage {
		case models.StageVerified:
			return fmt.Errorf("%w: photo already verified", ErrConflict)
		case models.StageUploaded:
			return fmt.Errorf("%w: photo has no tags", ErrConflict)
		}

		photo.Stage = models.StageVerified
		if err := q.UpdatePhotoTagging(ctx, photo.ID, photo.Stage, photo.TotalLitter); err != nil {
			return err
		}

		ev := events.TagsVerifiedByAdmin{Photo: *photo, VerifiedBy: adminID}
		if err := s.deps.Events.Dispatch(ctx, q, ev); err != nil {
			return err
		}
		fired = []events.Event{ev}

		if trustUser {
			return q.SetUserVerificationRequired(ctx, photo.UserID, false)
		}
		return nil
	})
	if err != nil {
		log.Error("VerifyByAdmin failed", "error", err)
		return nil, err
	}

	s.deps.Events.Publish(ctx, fired...)
	photo.Result = scoring.ResultString(photo.Tags)
	s.resolveURLs(photo)

	log.Info("Photo verified", "owner_id", photo.UserID, "total_litter", photo.TotalLitter)
	return photo, nil
}

// Get returns a photo with its tags. Only its owner or an admin may read it.
func (s *PhotoService) Get(ctx context.Context, actor Actor, photoID string) (*models.Photo, error) {
	photo, err := s.deps.Store.GetPhoto(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if photo.UserID != actor.UserID && !actor.isAdmin() {
		return nil, ErrForbidden
	}
	s.resolveURLs(photo)
	return photo, nil
}

// ListForUser returns the user's photos, oldest first, without tags.
func (s *PhotoService) ListForUser(ctx context.Context, userID string) ([]*models.Photo, error) {
	photos, err := s.deps.Store.ListPhotos(ctx, storage.PhotoFilter{UserID: userID})
	if err != nil {
		s.deps.Logger.Error("ListForUser failed", "user_id", userID, "error", err)
		return nil, err
	}
	if photos == nil {
		photos = []*models.Photo{}
	}
	for _, p := range photos {
		s.resolveURLs(p)
	}
	return photos, nil
}

func (s *PhotoService) resolveURLs(p *models.Photo) {
	if p.BlobKey != "" {
		p.URL = s.blobs.URL(p.BlobKey)
	}
	if p.ThumbnailKey != "" {
		p.ThumbnailURL = s.blobs.URL(p.ThumbnailKey)
	}
}

// removeBlobs deletes a photo's files. The row is already gone or was never
// written, so failures only leave orphaned files and are logged.
func (s *PhotoService) removeBlobs(ctx context.Context, p *models.Photo) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	for _, key := range []string{p.BlobKey, p.ThumbnailKey} {
		if key == "" {
			continue
		}
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.deps.Logger.Warn("Failed to delete blob", "key", key, "error", err)
		}
	}
}
