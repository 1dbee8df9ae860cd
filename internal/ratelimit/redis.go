package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript counts the request and stamps the window TTL on the first hit
// in one round trip, so concurrent edges sharing the store cannot race the
// expiry.
var incrScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`)

// RedisStore shares counters across replicas. Window expiry is delegated to
// key TTLs, so Sweep is a no-op.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "guardiao:rl:"}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration, now time.Time) (int, time.Time, error) {
	res, err := incrScript.Run(ctx, s.client, []string{s.prefix + key}, window.Milliseconds()).Slice()
	if err != nil {
		return 0, time.Time{}, err
	}
	count, _ := res[0].(int64)
	ttlMillis, _ := res[1].(int64)
	if ttlMillis < 0 {
		ttlMillis = window.Milliseconds()
	}
	return int(count), now.Add(time.Duration(ttlMillis) * time.Millisecond), nil
}

func (s *RedisStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}
