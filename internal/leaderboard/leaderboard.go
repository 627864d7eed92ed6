// Package leaderboard ranks users by XP globally, per country and per team.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultLimit and MaxLimit bound the number of entries returned by Top.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// ErrInvalidScope is returned for a scope string that cannot be parsed.
var ErrInvalidScope = errors.New("invalid leaderboard scope")

// Kind is the dimension a leaderboard ranks over.
type Kind string

const (
	KindGlobal  Kind = "global"
	KindCountry Kind = "country"
	KindTeam    Kind = "team"
)

// Scope names one leaderboard.
type Scope struct {
	Kind Kind
	ID   string
}

// Global is the all-users leaderboard.
var Global = Scope{Kind: KindGlobal}

// Country returns the leaderboard of a country location.
func Country(id string) Scope { return Scope{Kind: KindCountry, ID: id} }

// Team returns the leaderboard of a team.
func Team(id string) Scope { return Scope{Kind: KindTeam, ID: id} }

func (s Scope) String() string {
	if s.Kind == KindGlobal {
		return string(KindGlobal)
	}
	return string(s.Kind) + ":" + s.ID
}

// ParseScope parses "global", "country:{id}" or "team:{id}". An empty
// string is the global scope.
func ParseScope(s string) (Scope, error) {
	if s == "" || s == string(KindGlobal) {
		return Global, nil
	}
	kind, id, ok := strings.Cut(s, ":")
	if !ok || id == "" {
		return Scope{}, fmt.Errorf("%w: %q", ErrInvalidScope, s)
	}
	switch Kind(kind) {
	case KindCountry, KindTeam:
		return Scope{Kind: Kind(kind), ID: id}, nil
	default:
		return Scope{}, fmt.Errorf("%w: %q", ErrInvalidScope, s)
	}
}

// Entry is one ranked user.
type Entry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	XP          int64  `json:"xp"`
}

// Board stores XP rankings.
type Board interface {
	// AddXP adds delta to the user's score on every scope given. Scores
	// never drop below zero.
	AddXP(ctx context.Context, userID, displayName string, delta int, scopes ...Scope) error

	// Top returns the highest-ranked users of scope, best first.
	Top(ctx context.Context, scope Scope, limit int) ([]Entry, error)
}

// ClampLimit maps a requested limit into [1, MaxLimit], using DefaultLimit
// for non-positive values.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
