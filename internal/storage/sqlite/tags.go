package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/littertag/internal/models"
)

// UpsertPhotoTag sets the quantity of a category tag on a photo.
func (q *queries) UpsertPhotoTag(ctx context.Context, photoID string, tag models.Tag) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO photo_tags (photo_id, category, item, quantity) VALUES (?, ?, ?, ?)
		 ON CONFLICT (photo_id, category, item) DO UPDATE SET quantity = excluded.quantity`,
		photoID, tag.Category, tag.Item, tag.Quantity,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert photo tag: %w", err)
	}
	return nil
}

// ListPhotoTags returns a photo's category tags sorted by category and item.
func (q *queries) ListPhotoTags(ctx context.Context, photoID string) ([]models.Tag, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT category, item, quantity FROM photo_tags WHERE photo_id = ? ORDER BY category, item",
		photoID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get photo tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.Category, &tag.Item, &tag.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan photo tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate photo tags: %w", err)
	}

	return tags, nil
}

// AddCustomTag attaches a custom tag to a photo. It reports false when the
// photo already carries the tag in any letter case.
func (q *queries) AddCustomTag(ctx context.Context, photoID, tag string) (bool, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO custom_tags (id, photo_id, tag, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (photo_id, tag) DO NOTHING`,
		uuid.New().String(), photoID, tag, time.Now().Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert custom tag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// ListCustomTags returns a photo's custom tags in insertion order.
func (q *queries) ListCustomTags(ctx context.Context, photoID string) ([]models.CustomTag, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT id, photo_id, tag, created_at FROM custom_tags WHERE photo_id = ? ORDER BY rowid",
		photoID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get custom tags: %w", err)
	}
	defer rows.Close()

	var tags []models.CustomTag
	for rows.Next() {
		var tag models.CustomTag
		if err := rows.Scan(&tag.ID, &tag.PhotoID, &tag.Tag, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan custom tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate custom tags: %w", err)
	}

	return tags, nil
}

// ListPreviousCustomTags returns the distinct custom tags a user has put on
// their own photos, in order of first use. Tags differing only in case are
// one tag, spelled as first used.
func (q *queries) ListPreviousCustomTags(ctx context.Context, userID string, limit int) ([]string, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT ct.tag, MIN(ct.rowid) AS first_use
		 FROM custom_tags ct
		 JOIN photos p ON p.id = ct.photo_id
		 WHERE p.user_id = ?
		 GROUP BY ct.tag COLLATE NOCASE
		 ORDER BY first_use
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list previous custom tags: %w", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var (
			tag      string
			firstUse int64
		)
		if err := rows.Scan(&tag, &firstUse); err != nil {
			return nil, fmt.Errorf("failed to scan custom tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate custom tags: %w", err)
	}

	return tags, nil
}
