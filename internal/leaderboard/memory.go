package leaderboard

import (
	"context"
	"sort"
	"sync"
)

// MemoryBoard is an in-process Board used when Redis is not configured.
// Rankings are lost on restart.
type MemoryBoard struct {
	mu     sync.Mutex
	scores map[Scope]map[string]int64
	names  map[string]string
}

// NewMemoryBoard creates an empty board.
func NewMemoryBoard() *MemoryBoard {
	return &MemoryBoard{
		scores: make(map[Scope]map[string]int64),
		names:  make(map[string]string),
	}
}

func (b *MemoryBoard) AddXP(ctx context.Context, userID, displayName string, delta int, scopes ...Scope) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if displayName != "" {
		b.names[userID] = displayName
	}
	for _, s := range scopes {
		set, ok := b.scores[s]
		if !ok {
			set = make(map[string]int64)
			b.scores[s] = set
		}
		set[userID] = max(set[userID]+int64(delta), 0)
	}
	return nil
}

func (b *MemoryBoard) Top(ctx context.Context, scope Scope, limit int) ([]Entry, error) {
	limit = ClampLimit(limit)

	b.mu.Lock()
	defer b.mu.Unlock()

	entries := make([]Entry, 0, len(b.scores[scope]))
	for id, xp := range b.scores[scope] {
		entries = append(entries, Entry{UserID: id, DisplayName: b.names[id], XP: xp})
	}
	// Ties break on user ID descending, matching sorted-set reverse order.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].XP != entries[j].XP {
			return entries[i].XP > entries[j].XP
		}
		return entries[i].UserID > entries[j].UserID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
