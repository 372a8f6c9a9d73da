package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quotation-service/internal/common/database"
)

// Redis pushes each row as a JSON object onto a list.
type Redis struct {
	client *database.RedisClient
	key    string
	now    func() time.Time
}

func NewRedis(client *database.RedisClient, key string) *Redis {
	return &Redis{client: client, key: key, now: time.Now}
}

func (r *Redis) Name() string { return "redis" }

func (r *Redis) AppendRow(ctx context.Context, row Row) error {
	payload, err := json.Marshal(row.Document(r.now()))
	if err != nil {
		return fmt.Errorf("redis: encode row: %w", err)
	}
	if err := r.client.RPush(ctx, r.key, payload); err != nil {
		return fmt.Errorf("redis rpush %s: %w", r.key, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
