package service

import (
	"context"

	"github.com/mmynk/littertag/internal/leaderboard"
	"github.com/mmynk/littertag/internal/models"
)

// LocationService reads location statistics and leaderboards.
type LocationService struct {
	deps Deps
}

// NewLocationService creates a LocationService.
func NewLocationService(deps Deps) *LocationService {
	return &LocationService{deps: deps.withDefaults()}
}

// Get returns a location with its per-category litter totals.
func (s *LocationService) Get(ctx context.Context, locationID string) (*models.Location, error) {
	return s.deps.Store.GetLocation(ctx, locationID)
}

// Leaderboard returns the top users of scope ("global", "country:{id}" or
// "team:{id}"). The global ranking is read from users' stored XP; country
// and team rankings come from the leaderboard board.
func (s *LocationService) Leaderboard(ctx context.Context, scope string, limit int) ([]leaderboard.Entry, error) {
	sc, err := leaderboard.ParseScope(scope)
	if err != nil {
		return nil, invalid(err)
	}
	if sc.Kind == leaderboard.KindGlobal {
		return s.globalLeaderboard(ctx, leaderboard.ClampLimit(limit))
	}
	entries, err := s.deps.Board.Top(ctx, sc, limit)
	if err != nil {
		s.deps.Logger.Error("Leaderboard failed", "scope", sc.String(), "error", err)
		return nil, err
	}
	return entries, nil
}

func (s *LocationService) globalLeaderboard(ctx context.Context, limit int) ([]leaderboard.Entry, error) {
	users, err := s.deps.Store.ListTopUsersByXP(ctx, limit)
	if err != nil {
		s.deps.Logger.Error("Leaderboard failed", "scope", leaderboard.Global.String(), "error", err)
		return nil, err
	}
	entries := make([]leaderboard.Entry, len(users))
	for i, u := range users {
		entries[i] = leaderboard.Entry{Rank: i + 1, UserID: u.ID, DisplayName: u.DisplayName, XP: int64(u.XP)}
	}
	return entries, nil
}
