package progress

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/clientdesk/clientdesk/modules/crm/importer"
)

const keyPrefix = "crm:import:progress:"

// RedisReporter stores import progress snapshots under a TTL so pollers can
// follow long-running imports without holding the request open.
type RedisReporter struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisReporter(client *redis.Client, ttl time.Duration) *RedisReporter {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisReporter{client: client, ttl: ttl}
}

func (r *RedisReporter) Publish(ctx context.Context, p importer.Progress) error {
	p.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "marshal import progress")
	}
	return errors.Wrap(
		r.client.Set(ctx, keyPrefix+p.RunID, payload, r.ttl).Err(),
		"store import progress",
	)
}

func (r *RedisReporter) Fetch(ctx context.Context, runID string) (*importer.Progress, error) {
	payload, err := r.client.Get(ctx, keyPrefix+runID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, importer.ErrProgressNotFound
		}
		return nil, errors.Wrap(err, "load import progress")
	}
	var p importer.Progress
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, errors.Wrap(err, "decode import progress")
	}
	return &p, nil
}
