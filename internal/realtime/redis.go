package realtime

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func NewRedis(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
}

// PublishNotification relays an event to the per-user notification
// channel. Consumers (mobile push relay, other instances) subscribe to
// notifications:<user id>.
func PublishNotification(ctx context.Context, rdb *redis.Client, userID uuid.UUID, event map[string]interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return rdb.Publish(ctx, "notifications:"+userID.String(), payload).Err()
}
