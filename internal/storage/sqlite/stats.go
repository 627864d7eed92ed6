package sqlite

import (
	"context"
	"fmt"

	"github.com/mmynk/littertag/internal/models"
)

// AddUserTimeSeries adds photos and litter to a user's month (YYYY-MM).
func (q *queries) AddUserTimeSeries(ctx context.Context, userID, month string, photos, litter int) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO user_time_series (user_id, month, photos, litter) VALUES (?, ?, MAX(?, 0), MAX(?, 0))
		 ON CONFLICT (user_id, month) DO UPDATE
		 SET photos = MAX(photos + ?, 0), litter = MAX(litter + ?, 0)`,
		userID, month, photos, litter, photos, litter,
	)
	if err != nil {
		return fmt.Errorf("failed to update user time series: %w", err)
	}
	return nil
}

// ListUserTimeSeries returns a user's monthly activity, oldest month first.
func (q *queries) ListUserTimeSeries(ctx context.Context, userID string) ([]models.TimeSeriesPoint, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT month, photos, litter FROM user_time_series WHERE user_id = ? ORDER BY month",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list user time series: %w", err)
	}
	defer rows.Close()

	var points []models.TimeSeriesPoint
	for rows.Next() {
		var p models.TimeSeriesPoint
		if err := rows.Scan(&p.Month, &p.Photos, &p.Litter); err != nil {
			return nil, fmt.Errorf("failed to scan time series point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate time series: %w", err)
	}
	return points, nil
}

// AddUserCategory adds delta to a user's litter total for category.
func (q *queries) AddUserCategory(ctx context.Context, userID, category string, delta int) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO user_categories (user_id, category, total) VALUES (?, ?, MAX(?, 0))
		 ON CONFLICT (user_id, category) DO UPDATE SET total = MAX(total + ?, 0)`,
		userID, category, delta, delta,
	)
	if err != nil {
		return fmt.Errorf("failed to update user category: %w", err)
	}
	return nil
}

// ListUserCategories returns a user's litter totals per category, largest first.
func (q *queries) ListUserCategories(ctx context.Context, userID string) ([]models.CategoryTotal, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT category, total FROM user_categories WHERE user_id = ? ORDER BY total DESC, category",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list user categories: %w", err)
	}
	defer rows.Close()

	var totals []models.CategoryTotal
	for rows.Next() {
		var c models.CategoryTotal
		if err := rows.Scan(&c.Category, &c.Total); err != nil {
			return nil, fmt.Errorf("failed to scan user category: %w", err)
		}
		totals = append(totals, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user categories: %w", err)
	}
	return totals, nil
}
