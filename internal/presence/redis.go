package presence

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const onlineKey = "talkwire:online"

// unregisterScript deletes the hash field only when it still holds the
// departing connection ID, so a stale disconnect cannot remove a newer one.
var unregisterScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], ARGV[1]) == ARGV[2] then
    return redis.call('HDEL', KEYS[1], ARGV[1])
end
return 0
`)

// RedisRegistry stores presence in a shared Redis hash so multiple server
// instances observe the same online set.
type RedisRegistry struct {
	client *redis.Client
}

func NewRedisRegistry(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{client: client}
}

func (r *RedisRegistry) Register(ctx context.Context, userID int, connID string) error {
	if err := r.client.HSet(ctx, onlineKey, strconv.Itoa(userID), connID).Err(); err != nil {
		return fmt.Errorf("failed to register presence: %w", err)
	}
	return nil
}

func (r *RedisRegistry) Unregister(ctx context.Context, userID int, connID string) error {
	if err := unregisterScript.Run(ctx, r.client, []string{onlineKey}, strconv.Itoa(userID), connID).Err(); err != nil {
		return fmt.Errorf("failed to unregister presence: %w", err)
	}
	return nil
}

func (r *RedisRegistry) Lookup(ctx context.Context, userID int) (string, bool, error) {
	connID, err := r.client.HGet(ctx, onlineKey, strconv.Itoa(userID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up presence: %w", err)
	}
	return connID, true, nil
}

func (r *RedisRegistry) Snapshot(ctx context.Context) ([]int, error) {
	fields, err := r.client.HKeys(ctx, onlineKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot presence: %w", err)
	}
	ids := make([]int, 0, len(fields))
	for _, field := range fields {
		id, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}
