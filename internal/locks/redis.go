package locks

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/opencare/care-scheduler/internal/httperr"
)

// releaseScript deletes the key only if this process still holds it.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
end
return 0`

// RedisLocker serializes schedulers across processes with SET NX + TTL.
// The TTL bounds how long a crashed holder can wedge a resource.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		retry:  25 * time.Millisecond,
	}
}

func (l *RedisLocker) acquireOne(ctx context.Context, key, token string) error {
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-time.After(l.retry):
		case <-ctx.Done():
			return httperr.Busy()
		}
	}
}

func (l *RedisLocker) releaseOne(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	l.client.Eval(ctx, releaseScript, []string{key}, token)
}

func (l *RedisLocker) Acquire(ctx context.Context, keys []string) (func(), error) {
	sorted := sortKeys(keys)
	token := uuid.NewString()

	acquired := make([]string, 0, len(sorted))
	for _, key := range sorted {
		if err := l.acquireOne(ctx, key, token); err != nil {
			for i := len(acquired) - 1; i >= 0; i-- {
				l.releaseOne(acquired[i], token)
			}
			return nil, err
		}
		acquired = append(acquired, key)
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			for i := len(acquired) - 1; i >= 0; i-- {
				l.releaseOne(acquired[i], token)
			}
		})
	}
	return release, nil
}
