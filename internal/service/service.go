// Package service implements the application operations behind the HTTP
// API. Each operation that writes runs in one storage transaction together
// with the listeners its events trigger; side effects outside the database
// (leaderboard, event forwarding, blob cleanup) run after commit.
package service

import (
	"context"
	"log/slog"

	"github.com/mmynk/littertag/internal/events"
	"github.com/mmynk/littertag/internal/leaderboard"
	"github.com/mmynk/littertag/internal/metrics"
	"github.com/mmynk/littertag/internal/storage"
)

// Deps are shared by all services.
type Deps struct {
	Store  storage.Store
	Events *events.Dispatcher
	Board  leaderboard.Board
	Logger *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Events == nil {
		d.Events = events.NewDispatcher(d.Logger)
	}
	if d.Board == nil {
		d.Board = leaderboard.NewMemoryBoard()
	}
	return d
}

// xpAward is XP earned by one user in one operation, split by the
// leaderboards it counts towards.
type xpAward struct {
	userID      string
	displayName string
	source      string
	total       int
	byCountry   map[string]int
	byTeam      map[string]int
}

func newXPAward(userID, displayName, source string) *xpAward {
	return &xpAward{
		userID:      userID,
		displayName: displayName,
		source:      source,
		byCountry:   make(map[string]int),
		byTeam:      make(map[string]int),
	}
}

// add credits xp earned on a photo taken in countryID for teamID. Either
// may be empty.
func (a *xpAward) add(xp int, countryID, teamID string) {
	a.total += xp
	if countryID != "" {
		a.byCountry[countryID] += xp
	}
	if teamID != "" {
		a.byTeam[teamID] += xp
	}
}

// apply pushes the award to the country and team leaderboards. The global
// ranking is read from users.xp, which the transaction already updated. It
// runs after commit, so failures are logged and swallowed.
func (d Deps) apply(ctx context.Context, a *xpAward) {
	if a == nil || a.total == 0 {
		return
	}
	if a.total > 0 {
		metrics.XPAwarded.WithLabelValues(a.source).Add(float64(a.total))
	}

	for id, xp := range a.byCountry {
		if err := d.Board.AddXP(ctx, a.userID, a.displayName, xp, leaderboard.Country(id)); err != nil {
			d.Logger.Warn("Failed to update leaderboard", "user_id", a.userID, "scope", "country", "error", err)
		}
	}
	for id, xp := range a.byTeam {
		if err := d.Board.AddXP(ctx, a.userID, a.displayName, xp, leaderboard.Team(id)); err != nil {
			d.Logger.Warn("Failed to update leaderboard", "user_id", a.userID, "scope", "team", "error", err)
		}
	}
}
