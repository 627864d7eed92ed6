package service

import (
	"context"
	"strings"

	"github.com/mmynk/littertag/internal/models"
	"github.com/mmynk/littertag/internal/storage"
)

// TeamService manages teams and memberships.
type TeamService struct {
	deps Deps
}

// NewTeamService creates a TeamService.
func NewTeamService(deps Deps) *TeamService {
	return &TeamService{deps: deps.withDefaults()}
}

// Create creates a team led by userID. The leader joins it and it becomes
// their active team.
func (s *TeamService) Create(ctx context.Context, userID, name string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	s.deps.Logger.Info("CreateTeam request received", "user_id", userID, "name", name)

	if name == "" {
		return nil, invalidf("team name is required")
	}

	team := &models.Team{Name: name, LeaderID: userID}
	err := s.deps.Store.WithTx(ctx, func(q storage.Queries) error {
		if _, err := q.GetUserByID(ctx, userID); err != nil {
			return err
		}
		if err := q.CreateTeam(ctx, team); err != nil {
			return err
		}
		return s.join(ctx, q, team, userID)
	})
	if err != nil {
		s.deps.Logger.Error("CreateTeam failed", "user_id", userID, "error", err)
		return nil, err
	}

	s.deps.Logger.Info("Team created", "team_id", team.ID, "leader_id", userID)
	return team, nil
}

// Join adds userID to a team and makes it their active team. Joining a
// team twice only switches the active team.
func (s *TeamService) Join(ctx context.Context, userID, teamID string) (*models.Team, error) {
	s.deps.Logger.Info("JoinTeam request received", "user_id", userID, "team_id", teamID)

	var team *models.Team
	err := s.deps.Store.WithTx(ctx, func(q storage.Queries) error {
		var err error
		if team, err = q.GetTeam(ctx, teamID); err != nil {
			return err
		}
		return s.join(ctx, q, team, userID)
	})
	if err != nil {
		s.deps.Logger.Error("JoinTeam failed", "user_id", userID, "team_id", teamID, "error", err)
		return nil, err
	}
	return team, nil
}

func (s *TeamService) join(ctx context.Context, q storage.Queries, team *models.Team, userID string) error {
	added, err := q.AddTeamMember(ctx, team.ID, userID)
	if err != nil {
		return err
	}
	if added {
		team.TotalMembers++
	}
	return q.SetUserActiveTeam(ctx, userID, team.ID)
}

// Get returns a team.
func (s *TeamService) Get(ctx context.Context, teamID string) (*models.Team, error) {
	team, err := s.deps.Store.GetTeam(ctx, teamID)
	if err != nil {
		s.deps.Logger.Warn("GetTeam failed", "team_id", teamID, "error", err)
		return nil, err
	}
	return team, nil
}
