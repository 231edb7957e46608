package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pozial/pozial-api/internal/platform/httpx"
)

// ReplayGuard rejects a signature the second time it is seen within the
// freshness window. The timestamp check alone still accepts a captured
// request for up to five minutes; marking each signature as used closes that
// gap. Keys expire on their own after the window, so the store stays bounded.
type ReplayGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReplayGuard constructs a ReplayGuard backed by the given client.
func NewReplayGuard(client *redis.Client) *ReplayGuard {
	return &ReplayGuard{client: client, ttl: MaxAssertionAge + MaxClockSkew}
}

// Check marks the signature as used. It returns httpx.ErrUnauthorized when
// the signature was already seen, and fails closed when redis is unreachable.
func (g *ReplayGuard) Check(ctx context.Context, signature string) error {
	if g == nil || g.client == nil {
		return nil
	}
	ok, err := g.client.SetNX(ctx, g.key(signature), 1, g.ttl).Result()
	if err != nil {
		return httpx.ErrUnauthorized
	}
	if !ok {
		return httpx.ErrUnauthorized
	}
	return nil
}

func (g *ReplayGuard) key(signature string) string {
	return "bff:sig:" + signature
}
