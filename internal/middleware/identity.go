package middleware

import "context"

const identityKey contextKey = "identity"

type identity struct {
	userID string
}

func withIdentity(ctx context.Context, id *identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// recordIdentity lets RequestLogger see the user authenticated further down the chain.
func recordIdentity(ctx context.Context, userID string) {
	if id, ok := ctx.Value(identityKey).(*identity); ok {
		id.userID = userID
	}
}
