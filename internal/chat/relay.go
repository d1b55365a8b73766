package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	eventsChannel = "courseconnect:events"
	onlineKey     = "courseconnect:online"
)

// releaseScript deletes the user's field only while it still names the
// releasing connection.
var releaseScript = redis.NewScript(`
if redis.call("HGET", KEYS[1], ARGV[1]) == ARGV[2] then
	return redis.call("HDEL", KEYS[1], ARGV[1])
end
return 0
`)

// RedisRelay connects hubs running in different processes: every instance
// publishes to one channel and delivers what it receives to its own sockets.
// The online hash maps each user id to the connection that owns it.
type RedisRelay struct {
	client *redis.Client
}

func NewRedisRelay(client *redis.Client) *RedisRelay {
	return &RedisRelay{client: client}
}

func (r *RedisRelay) Publish(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, eventsChannel, data).Err()
}

func (r *RedisRelay) Subscribe(ctx context.Context, deliver func(Envelope)) error {
	pubsub := r.client.Subscribe(ctx, eventsChannel)
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before consuming.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", eventsChannel, err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				continue
			}
			deliver(env)
		}
	}
}

func (r *RedisRelay) Claim(ctx context.Context, userID uuid.UUID, owner string) error {
	return r.client.HSet(ctx, onlineKey, userID.String(), owner).Err()
}

func (r *RedisRelay) Release(ctx context.Context, userID uuid.UUID, owner string) (bool, error) {
	n, err := releaseScript.Run(ctx, r.client, []string{onlineKey}, userID.String(), owner).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *RedisRelay) Owner(ctx context.Context, userID uuid.UUID) (string, error) {
	owner, err := r.client.HGet(ctx, onlineKey, userID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return owner, err
}

func (r *RedisRelay) Online(ctx context.Context) ([]uuid.UUID, error) {
	members, err := r.client.HKeys(ctx, onlineKey).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return slices.Compare(a[:], b[:]) })
	return ids, nil
}
