package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/littertag/internal/models"
)

const userColumns = `id, email, display_name, password_hash, role, xp, total_photos, total_litter,
	verification_required, active_team_id, created_at, updated_at`

// CreateUser inserts a new user into the database.
func (q *queries) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if user.Role == "" {
		user.Role = models.RoleUser
	}

	_, err := q.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		string(user.Role),
		user.XP,
		user.TotalPhotos,
		user.TotalLitter,
		user.VerificationRequired,
		nullString(user.ActiveTeamID),
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", conflict(err, "user", user.Email))
	}

	return nil
}

// GetUserByEmail retrieves a user by their email address.
func (q *queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`

	user, err := scanUser(q.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (q *queries) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(q.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

// ListTopUsersByXP returns the users with the most XP, highest first. Users
// without XP are left out; ties go to the larger ID.
func (q *queries) ListTopUsersByXP(ctx context.Context, limit int) ([]*models.User, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE xp > 0 ORDER BY xp DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list top users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// AddUserXP adds delta to the user's XP. XP never drops below zero.
func (q *queries) AddUserXP(ctx context.Context, userID string, delta int) error {
	return q.addUserCounter(ctx, userID, "xp", delta)
}

// AddUserPhotos adds delta to the user's photo count.
func (q *queries) AddUserPhotos(ctx context.Context, userID string, delta int) error {
	return q.addUserCounter(ctx, userID, "total_photos", delta)
}

// AddUserLitter adds delta to the user's verified litter count.
func (q *queries) AddUserLitter(ctx context.Context, userID string, delta int) error {
	return q.addUserCounter(ctx, userID, "total_litter", delta)
}

// addUserCounter applies a clamped increment to one of the users counter
// columns. column is always a constant supplied by this package.
func (q *queries) addUserCounter(ctx context.Context, userID, column string, delta int) error {
	query := fmt.Sprintf(
		"UPDATE users SET %[1]s = MAX(%[1]s + ?, 0), updated_at = ? WHERE id = ?", column)
	res, err := q.db.ExecContext(ctx, query, delta, time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", column, err)
	}
	return requireRow(res, "user", userID)
}

// SetUserActiveTeam sets the team the user's new uploads are credited to.
func (q *queries) SetUserActiveTeam(ctx context.Context, userID, teamID string) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE users SET active_team_id = ?, updated_at = ? WHERE id = ?",
		nullString(teamID), time.Now().Unix(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set active team: %w", err)
	}
	return requireRow(res, "user", userID)
}

// SetUserVerificationRequired marks a user as trusted (false) or not.
func (q *queries) SetUserVerificationRequired(ctx context.Context, userID string, required bool) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE users SET verification_required = ?, updated_at = ? WHERE id = ?",
		required, time.Now().Unix(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set verification flag: %w", err)
	}
	return requireRow(res, "user", userID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var role string
	var team sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&role,
		&user.XP,
		&user.TotalPhotos,
		&user.TotalLitter,
		&user.VerificationRequired,
		&team,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Role = models.Role(role)
	user.ActiveTeamID = team.String
	return user, nil
}

// requireRow returns a not-found error when res touched no rows.
func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound(kind, id)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
