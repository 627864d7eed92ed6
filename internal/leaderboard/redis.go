package leaderboard

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "littertag:leaderboard:"

// namesKey maps user IDs to display names.
const namesKey = "littertag:users:names"

// RedisBoard keeps each scope in a sorted set keyed by user ID.
type RedisBoard struct {
	rdb *redis.Client
}

// NewRedisBoard creates a board on top of an existing client.
func NewRedisBoard(rdb *redis.Client) *RedisBoard {
	return &RedisBoard{rdb: rdb}
}

func scopeKey(s Scope) string {
	return keyPrefix + s.String()
}

func (b *RedisBoard) AddXP(ctx context.Context, userID, displayName string, delta int, scopes ...Scope) error {
	if len(scopes) == 0 {
		return nil
	}

	pipe := b.rdb.TxPipeline()
	if displayName != "" {
		pipe.HSet(ctx, namesKey, userID, displayName)
	}
	incrs := make([]*redis.FloatCmd, len(scopes))
	for i, s := range scopes {
		incrs[i] = pipe.ZIncrBy(ctx, scopeKey(s), float64(delta), userID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update leaderboard: %w", err)
	}

	// Negative scores are reset to zero.
	for i, cmd := range incrs {
		if cmd.Val() < 0 {
			if err := b.rdb.ZAdd(ctx, scopeKey(scopes[i]), redis.Z{Score: 0, Member: userID}).Err(); err != nil {
				return fmt.Errorf("failed to clamp leaderboard score: %w", err)
			}
		}
	}
	return nil
}

func (b *RedisBoard) Top(ctx context.Context, scope Scope, limit int) ([]Entry, error) {
	limit = ClampLimit(limit)

	zs, err := b.rdb.ZRevRangeWithScores(ctx, scopeKey(scope), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	if len(zs) == 0 {
		return []Entry{}, nil
	}

	ids := make([]string, len(zs))
	for i, z := range zs {
		ids[i] = z.Member.(string)
	}
	names, err := b.rdb.HMGet(ctx, namesKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard names: %w", err)
	}

	entries := make([]Entry, len(zs))
	for i, z := range zs {
		entries[i] = Entry{Rank: i + 1, UserID: ids[i], XP: int64(z.Score)}
		if name, ok := names[i].(string); ok {
			entries[i].DisplayName = name
		}
	}
	return entries, nil
}
