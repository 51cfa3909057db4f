package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/roadcall/dispatch/internal/models"
	"github.com/roadcall/dispatch/internal/repository"
)

// Store is the slice of the go-redis client the cache uses. Declared here so
// tests can substitute a mock.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// CandidateCache is a read-through cache over the provider candidate query.
// Every request insert triggers a full candidate scan, so a short TTL keeps
// hot bursts of requests from hammering Postgres. Cache failures are never
// fatal: on any Redis error the cache falls back to the repository.
type CandidateCache struct {
	next repository.Interface
	rdb  Store
	ttl  time.Duration
	log  *slog.Logger
}

// NewCandidateCache wraps a repository with a Redis-backed candidate cache.
func NewCandidateCache(next repository.Interface, rdb Store, ttl time.Duration, log *slog.Logger) *CandidateCache {
	return &CandidateCache{next: next, rdb: rdb, ttl: ttl, log: log}
}

func candidateKey(channel models.Channel) string {
	return fmt.Sprintf("dispatch:candidates:%s", channel)
}

// ListCandidates serves the candidate list from Redis when fresh, otherwise
// from the repository, repopulating the cache on the way out.
func (c *CandidateCache) ListCandidates(ctx context.Context, channel models.Channel) ([]models.Provider, error) {
	key := candidateKey(channel)

	cached, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		var providers []models.Provider
		if errDecode := json.Unmarshal([]byte(cached), &providers); errDecode == nil {
			c.log.DebugContext(ctx, "Candidate cache hit", "channel", channel, "count", len(providers))
			return providers, nil
		}
		c.log.WarnContext(ctx, "Candidate cache entry is corrupt, refetching", "key", key)
	}

	providers, err := c.next.ListCandidates(ctx, channel)
	if err != nil {
		return nil, err
	}

	if encoded, errEncode := json.Marshal(providers); errEncode == nil {
		if errSet := c.rdb.Set(ctx, key, encoded, c.ttl).Err(); errSet != nil {
			c.log.WarnContext(ctx, "Failed to populate candidate cache", "key", key, "error", errSet)
		}
	}

	return providers, nil
}

// GetRequester is a pass-through; requester lookups are single-row reads.
func (c *CandidateCache) GetRequester(ctx context.Context, id string) (*models.Requester, error) {
	return c.next.GetRequester(ctx, id)
}
