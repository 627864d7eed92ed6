package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/littertag/internal/models"
)

const locationColumns = `id, level, name, parent_id, total_photos, total_litter, total_contributors, created_at`

// FindOrCreateLocation returns the location with the given level, name and
// parent, creating it on first use.
func (q *queries) FindOrCreateLocation(ctx context.Context, level models.Level, name, parentID string) (*models.Location, error) {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO locations (id, level, name, parent_id, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (level, name, parent_id) DO NOTHING`,
		uuid.New().String(), string(level), name, parentID, time.Now().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert location: %w", err)
	}

	loc, err := scanLocation(q.db.QueryRowContext(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE level = ? AND name = ? AND parent_id = ?`,
		string(level), name, parentID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	return loc, nil
}

// GetLocation retrieves a location by ID, including its category totals.
func (q *queries) GetLocation(ctx context.Context, locationID string) (*models.Location, error) {
	loc, err := scanLocation(q.db.QueryRowContext(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE id = ?`, locationID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("location", locationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}

	rows, err := q.db.QueryContext(ctx,
		"SELECT category, total FROM location_categories WHERE location_id = ?", locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get location categories: %w", err)
	}
	defer rows.Close()

	loc.Categories = make(map[string]int)
	for rows.Next() {
		var category string
		var total int
		if err := rows.Scan(&category, &total); err != nil {
			return nil, fmt.Errorf("failed to scan location category: %w", err)
		}
		loc.Categories[category] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate location categories: %w", err)
	}

	return loc, nil
}

// AddLocationTotals adds to a location's photo and litter counters,
// clamping both at zero.
func (q *queries) AddLocationTotals(ctx context.Context, locationID string, photos, litter int) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE locations
		 SET total_photos = MAX(total_photos + ?, 0), total_litter = MAX(total_litter + ?, 0)
		 WHERE id = ?`,
		photos, litter, locationID,
	)
	if err != nil {
		return fmt.Errorf("failed to update location totals: %w", err)
	}
	return requireRow(res, "location", locationID)
}

// AddLocationContributor counts one more photo by userID at the location.
// It reports true, and increments the contributor counter, when this is the
// user's first photo there.
func (q *queries) AddLocationContributor(ctx context.Context, locationID, userID string) (bool, error) {
	var photos int
	err := q.db.QueryRowContext(ctx,
		"SELECT photos FROM location_contributors WHERE location_id = ? AND user_id = ?",
		locationID, userID,
	).Scan(&photos)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := q.db.ExecContext(ctx,
			"INSERT INTO location_contributors (location_id, user_id, photos) VALUES (?, ?, 1)",
			locationID, userID,
		); err != nil {
			return false, fmt.Errorf("failed to insert location contributor: %w", err)
		}
		if err := q.addContributors(ctx, locationID, 1); err != nil {
			return false, err
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("failed to get location contributor: %w", err)
	}

	if _, err := q.db.ExecContext(ctx,
		"UPDATE location_contributors SET photos = photos + 1 WHERE location_id = ? AND user_id = ?",
		locationID, userID,
	); err != nil {
		return false, fmt.Errorf("failed to update location contributor: %w", err)
	}
	return false, nil
}

// RemoveLocationContributor counts one photo less by userID at the location.
// It reports true, and decrements the contributor counter, when that was the
// user's last photo there.
func (q *queries) RemoveLocationContributor(ctx context.Context, locationID, userID string) (bool, error) {
	var photos int
	err := q.db.QueryRowContext(ctx,
		"SELECT photos FROM location_contributors WHERE location_id = ? AND user_id = ?",
		locationID, userID,
	).Scan(&photos)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get location contributor: %w", err)
	}

	if photos > 1 {
		if _, err := q.db.ExecContext(ctx,
			"UPDATE location_contributors SET photos = photos - 1 WHERE location_id = ? AND user_id = ?",
			locationID, userID,
		); err != nil {
			return false, fmt.Errorf("failed to update location contributor: %w", err)
		}
		return false, nil
	}

	if _, err := q.db.ExecContext(ctx,
		"DELETE FROM location_contributors WHERE location_id = ? AND user_id = ?",
		locationID, userID,
	); err != nil {
		return false, fmt.Errorf("failed to delete location contributor: %w", err)
	}
	if err := q.addContributors(ctx, locationID, -1); err != nil {
		return false, err
	}
	return true, nil
}

func (q *queries) addContributors(ctx context.Context, locationID string, delta int) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE locations SET total_contributors = MAX(total_contributors + ?, 0) WHERE id = ?",
		delta, locationID,
	)
	if err != nil {
		return fmt.Errorf("failed to update location contributors: %w", err)
	}
	return requireRow(res, "location", locationID)
}

// AddLocationCategory adds delta to a location's litter total for category.
func (q *queries) AddLocationCategory(ctx context.Context, locationID, category string, delta int) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO location_categories (location_id, category, total) VALUES (?, ?, MAX(?, 0))
		 ON CONFLICT (location_id, category) DO UPDATE SET total = MAX(total + ?, 0)`,
		locationID, category, delta, delta,
	)
	if err != nil {
		return fmt.Errorf("failed to update location category: %w", err)
	}
	return nil
}

// IncrementLocationMonth counts one upload at the location in month (YYYY-MM).
func (q *queries) IncrementLocationMonth(ctx context.Context, locationID, month string) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO location_months (location_id, month, photos) VALUES (?, ?, 1)
		 ON CONFLICT (location_id, month) DO UPDATE SET photos = photos + 1`,
		locationID, month,
	)
	if err != nil {
		return fmt.Errorf("failed to increment location month: %w", err)
	}
	return nil
}

// GetLocationMonth returns the uploads counted at the location in month.
func (q *queries) GetLocationMonth(ctx context.Context, locationID, month string) (int, error) {
	var photos int
	err := q.db.QueryRowContext(ctx,
		"SELECT photos FROM location_months WHERE location_id = ? AND month = ?",
		locationID, month,
	).Scan(&photos)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get location month: %w", err)
	}
	return photos, nil
}

func scanLocation(row rowScanner) (*models.Location, error) {
	loc := &models.Location{}
	var level string
	err := row.Scan(&loc.ID, &level, &loc.Name, &loc.ParentID,
		&loc.TotalPhotos, &loc.TotalLitter, &loc.TotalContributors, &loc.CreatedAt)
	if err != nil {
		return nil, err
	}
	loc.Level = models.Level(level)
	return loc, nil
}
