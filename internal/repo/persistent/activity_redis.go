package persistent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/andreyxaxa/Domain-Service/internal/dto"
	"github.com/andreyxaxa/Domain-Service/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const activityKeyPrefix = "domain-activity:"

// ActivityRepo keeps the newest events of each domain record in a capped
// Redis list, newest first.
type ActivityRepo struct {
	client   *redis.Client
	capacity int64
}

func NewActivityRepo(client *redis.Client, capacity int) *ActivityRepo {
	return &ActivityRepo{client: client, capacity: int64(capacity)}
}

func (r *ActivityRepo) Append(ctx context.Context, aggregateID uuid.UUID, item dto.ActivityItem) error {
	b, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("ActivityRepo - Append - json.Marshal: %w", err)
	}

	key := activityKeyPrefix + aggregateID.String()

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, b)
		pipe.LTrim(ctx, key, 0, r.capacity-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ActivityRepo - Append - r.client.TxPipelined: %w", errs.Unavailable(err))
	}

	return nil
}

func (r *ActivityRepo) List(ctx context.Context, aggregateID uuid.UUID, limit int) ([]dto.ActivityItem, error) {
	if limit <= 0 || int64(limit) > r.capacity {
		limit = int(r.capacity)
	}

	raw, err := r.client.LRange(ctx, activityKeyPrefix+aggregateID.String(), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("ActivityRepo - List - r.client.LRange: %w", errs.Unavailable(err))
	}

	items := make([]dto.ActivityItem, 0, len(raw))
	for _, s := range raw {
		var item dto.ActivityItem
		if err := json.Unmarshal([]byte(s), &item); err != nil {
			return nil, fmt.Errorf("ActivityRepo - List - json.Unmarshal: %w", err)
		}
		items = append(items, item)
	}

	return items, nil
}
