package persistent

import (
	"context"
	"fmt"
	"time"

	"github.com/andreyxaxa/Domain-Service/pkg/types/errs"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const processedKeyPrefix = "domain-events:processed:"

// ProcessedEventsRepo records consumed event keys in Redis so every consumer
// replica sees the same history. A local cache short-circuits repeats that
// this replica has already seen.
type ProcessedEventsRepo struct {
	client *redis.Client
	local  *gocache.Cache
	ttl    time.Duration
}

func NewProcessedEventsRepo(client *redis.Client, ttl time.Duration) *ProcessedEventsRepo {
	return &ProcessedEventsRepo{
		client: client,
		local:  gocache.New(ttl, 2*ttl),
		ttl:    ttl,
	}
}

func (r *ProcessedEventsRepo) MarkProcessed(ctx context.Context, key string) (bool, error) {
	if _, found := r.local.Get(key); found {
		return false, nil
	}

	added, err := r.client.SetNX(ctx, processedKeyPrefix+key, 1, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("ProcessedEventsRepo - MarkProcessed - r.client.SetNX: %w", errs.Unavailable(err))
	}

	r.local.SetDefault(key, struct{}{})

	return added, nil
}

// Forget drops key so a failed event can be processed again on redelivery.
func (r *ProcessedEventsRepo) Forget(ctx context.Context, key string) error {
	r.local.Delete(key)

	err := r.client.Del(ctx, processedKeyPrefix+key).Err()
	if err != nil {
		return fmt.Errorf("ProcessedEventsRepo - Forget - r.client.Del: %w", errs.Unavailable(err))
	}

	return nil
}
