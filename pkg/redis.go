package pkg

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisTimeout = 5 * time.Second

// RedisListPush appends a JSON-serialized value to a list and trims it to the newest maxEntries.
func RedisListPush(ctx context.Context, client *redis.Client, key string, value any, maxEntries int) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	pipe := client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if maxEntries > 0 {
		pipe.LTrim(ctx, key, int64(-maxEntries), -1)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// RedisListTail decodes the newest count entries of a list into dest, oldest first.
// dest must be a pointer to a slice.
func RedisListTail(ctx context.Context, client *redis.Client, key string, count int, dest any) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	items, err := client.LRange(ctx, key, int64(-count), -1).Result()
	if err != nil {
		return err
	}

	raw := make([]json.RawMessage, len(items))
	for i, item := range items {
		raw[i] = json.RawMessage(item)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}
