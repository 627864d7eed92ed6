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

// CreateTeam persists a new team. The leader is not added as a member;
// callers do that with AddTeamMember.
func (q *queries) CreateTeam(ctx context.Context, team *models.Team) error {
	if team.ID == "" {
		team.ID = uuid.New().String()
	}
	if team.CreatedAt == 0 {
		team.CreatedAt = time.Now().Unix()
	}

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO teams (id, name, leader_id, total_photos, total_litter, total_members, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		team.ID, team.Name, team.LeaderID, team.TotalPhotos, team.TotalLitter, team.TotalMembers, team.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert team: %w", conflict(err, "team", team.Name))
	}
	return nil
}

// GetTeam retrieves a team by ID.
func (q *queries) GetTeam(ctx context.Context, teamID string) (*models.Team, error) {
	team := &models.Team{}
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, leader_id, total_photos, total_litter, total_members, created_at
		 FROM teams WHERE id = ?`,
		teamID,
	).Scan(&team.ID, &team.Name, &team.LeaderID, &team.TotalPhotos, &team.TotalLitter,
		&team.TotalMembers, &team.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("team", teamID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return team, nil
}

// AddTeamMember adds a user to a team. It reports false when the user was
// already a member.
func (q *queries) AddTeamMember(ctx context.Context, teamID, userID string) (bool, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO team_members (team_id, user_id, joined_at) VALUES (?, ?, ?)
		 ON CONFLICT (team_id, user_id) DO NOTHING`,
		teamID, userID, time.Now().Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert team member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if _, err := q.db.ExecContext(ctx,
		"UPDATE teams SET total_members = total_members + 1 WHERE id = ?", teamID,
	); err != nil {
		return false, fmt.Errorf("failed to update team members: %w", err)
	}
	return true, nil
}

// GetTeamMember retrieves one user's membership of a team.
func (q *queries) GetTeamMember(ctx context.Context, teamID, userID string) (*models.TeamMember, error) {
	m := &models.TeamMember{}
	err := q.db.QueryRowContext(ctx,
		`SELECT team_id, user_id, total_photos, total_litter, joined_at
		 FROM team_members WHERE team_id = ? AND user_id = ?`,
		teamID, userID,
	).Scan(&m.TeamID, &m.UserID, &m.TotalPhotos, &m.TotalLitter, &m.JoinedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("team member", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team member: %w", err)
	}
	return m, nil
}

// AddTeamTotals adds to the team's photo and litter counters and to the
// member's share of them. Counters are clamped at zero. A user who has
// since left the team only affects the team totals.
func (q *queries) AddTeamTotals(ctx context.Context, teamID, userID string, photos, litter int) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE teams
		 SET total_photos = MAX(total_photos + ?, 0), total_litter = MAX(total_litter + ?, 0)
		 WHERE id = ?`,
		photos, litter, teamID,
	)
	if err != nil {
		return fmt.Errorf("failed to update team totals: %w", err)
	}
	if err := requireRow(res, "team", teamID); err != nil {
		return err
	}

	if _, err := q.db.ExecContext(ctx,
		`UPDATE team_members
		 SET total_photos = MAX(total_photos + ?, 0), total_litter = MAX(total_litter + ?, 0)
		 WHERE team_id = ? AND user_id = ?`,
		photos, litter, teamID, userID,
	); err != nil {
		return fmt.Errorf("failed to update team member totals: %w", err)
	}
	return nil
}
