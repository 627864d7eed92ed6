package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/littertag/internal/models"
	"github.com/mmynk/littertag/internal/storage"
)

const photoColumns = `id, user_id, filename, blob_key, thumbnail_key, lat, lon,
	country_id, state_id, city_id, team_id, verification, total_litter, result_string,
	date_taken, created_at`

// CreatePhoto persists a new photo to the database.
func (q *queries) CreatePhoto(ctx context.Context, photo *models.Photo) error {
	// Generate ID if not set
	if photo.ID == "" {
		photo.ID = uuid.New().String()
	}
	if photo.CreatedAt == 0 {
		photo.CreatedAt = time.Now().Unix()
	}

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO photos (`+photoColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		photo.ID, photo.UserID, photo.Filename, photo.BlobKey, photo.ThumbnailKey,
		photo.Lat, photo.Lon, photo.CountryID, photo.StateID, photo.CityID, photo.TeamID,
		int(photo.Stage), photo.TotalLitter, photo.Result, photo.DateTaken, photo.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert photo: %w", err)
	}

	return nil
}

// GetPhoto retrieves a photo by ID, including its category and custom tags.
func (q *queries) GetPhoto(ctx context.Context, photoID string) (*models.Photo, error) {
	photo, err := scanPhoto(q.db.QueryRowContext(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE id = ?`, photoID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("photo", photoID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}

	if photo.Tags, err = q.ListPhotoTags(ctx, photoID); err != nil {
		return nil, err
	}
	if photo.CustomTags, err = q.ListCustomTags(ctx, photoID); err != nil {
		return nil, err
	}

	return photo, nil
}

// ListPhotos returns the photos matching filter, oldest first.
// Tags are not loaded.
func (q *queries) ListPhotos(ctx context.Context, filter storage.PhotoFilter) ([]*models.Photo, error) {
	if filter.UserID == "" {
		return nil, fmt.Errorf("list photos: user ID required")
	}

	where := []string{"user_id = ?"}
	args := []any{filter.UserID}

	if len(filter.IDs) > 0 {
		where = append(where, "id IN ("+placeholders(len(filter.IDs))+")")
		args = append(args, toArgs(filter.IDs)...)
	}
	if len(filter.ExcludeIDs) > 0 {
		where = append(where, "id NOT IN ("+placeholders(len(filter.ExcludeIDs))+")")
		args = append(args, toArgs(filter.ExcludeIDs)...)
	}
	if filter.IDPrefix != "" {
		where = append(where, "id LIKE ? ESCAPE '\\'")
		args = append(args, escapeLike(filter.IDPrefix)+"%")
	}
	if filter.From > 0 {
		where = append(where, "created_at >= ?")
		args = append(args, filter.From)
	}
	if filter.To > 0 {
		where = append(where, "created_at <= ?")
		args = append(args, filter.To)
	}
	if filter.Stage != nil {
		where = append(where, "verification = ?")
		args = append(args, int(*filter.Stage))
	}
	if filter.MaxStage != nil {
		where = append(where, "verification < ?")
		args = append(args, int(*filter.MaxStage))
	}

	rows, err := q.db.QueryContext(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE `+strings.Join(where, " AND ")+
			` ORDER BY created_at, rowid`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	var photos []*models.Photo
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, photo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate photos: %w", err)
	}

	return photos, nil
}

// UpdatePhotoTagging records a photo's verification stage and litter total.
func (q *queries) UpdatePhotoTagging(ctx context.Context, photoID string, stage models.Stage, totalLitter int) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE photos SET verification = ?, total_litter = ? WHERE id = ?",
		int(stage), totalLitter, photoID,
	)
	if err != nil {
		return fmt.Errorf("failed to update photo tagging: %w", err)
	}
	return requireRow(res, "photo", photoID)
}

// SetPhotoResult stores the compiled result string of a photo.
func (q *queries) SetPhotoResult(ctx context.Context, photoID, result string) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE photos SET result_string = ? WHERE id = ?", result, photoID)
	if err != nil {
		return fmt.Errorf("failed to set photo result: %w", err)
	}
	return requireRow(res, "photo", photoID)
}

// DeletePhoto removes a photo and, by cascade, its tags.
func (q *queries) DeletePhoto(ctx context.Context, photoID string) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM photos WHERE id = ?", photoID)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return requireRow(res, "photo", photoID)
}

func scanPhoto(row rowScanner) (*models.Photo, error) {
	photo := &models.Photo{}
	var stage int
	err := row.Scan(
		&photo.ID, &photo.UserID, &photo.Filename, &photo.BlobKey, &photo.ThumbnailKey,
		&photo.Lat, &photo.Lon, &photo.CountryID, &photo.StateID, &photo.CityID, &photo.TeamID,
		&stage, &photo.TotalLitter, &photo.Result, &photo.DateTaken, &photo.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	photo.Stage = models.Stage(stage)
	return photo, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
