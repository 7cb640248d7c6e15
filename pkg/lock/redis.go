package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix    = "lock:"
	holdDuration = 30 * time.Second
	pollInterval = 100 * time.Millisecond
)

// RedisLocker implements Locker with SET NX PX. Locks auto-expire after a
// hold duration so a crashed holder cannot wedge the system.
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker builds a Locker backed by the given client.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// TryAcquire polls for the lock until the timeout elapses. The returned
// handle releases the lock only if this caller still holds it.
func (l *RedisLocker) TryAcquire(ctx context.Context, name string, timeout time.Duration) (Handle, bool, error) {
	key := keyPrefix + name
	token := uuid.NewString()
	deadline := time.Now().Add(timeout)

	for {
		ok, err := l.client.SetNX(ctx, key, token, holdDuration).Result()
		if err != nil {
			return nil, false, err
		}
		if ok {
			return &redisHandle{client: l.client, key: key, token: token}, true, nil
		}
		if time.Now().After(deadline) {
			return nil, false, nil
		}
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

type redisHandle struct {
	client *redis.Client
	key    string
	token  string
}

// releaseScript deletes the key only when the stored token matches, so an
// expired lock reacquired by another caller is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (h *redisHandle) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, h.client, []string{h.key}, h.token).Err()
}
