package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisAdmitScript decides admission inside Redis so concurrent replicas
// cannot double-admit at a window boundary. Rejected requests never touch
// the counter, so hammering a throttled scope cannot keep it saturated
// past the window it earned.
var redisAdmitScript = redis.NewScript(`
local count = tonumber(redis.call("GET", KEYS[1]) or "0")
if count >= tonumber(ARGV[1]) then
  return {0, redis.call("PTTL", KEYS[1])}
end
count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return {1, redis.call("PTTL", KEYS[1])}
`)

// RedisScopedLimiter is a fixed-window limiter shared across service
// replicas. Each limiter owns one scope ("auth", "api", "gateway"), and
// the scope is part of the Redis key: an address throttled on the auth
// endpoints still gets its full budget on the public job listings.
type RedisScopedLimiter struct {
	client redis.UniversalClient
	keyFor func(string) string
}

func NewRedisScopedLimiter(client redis.UniversalClient, prefix, scope string) *RedisScopedLimiter {
	if prefix == "" {
		prefix = "jobhive"
	}
	if scope == "" {
		scope = "api"
	}
	return &RedisScopedLimiter{
		client: client,
		keyFor: func(key string) string {
			if key == "" {
				key = "unknown"
			}
			return prefix + ":rl:" + scope + ":" + key
		},
	}
}

func (l *RedisScopedLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	if l.client == nil {
		return false, window, errors.New("redis client is nil")
	}
	windowMS := window.Milliseconds()
	if windowMS <= 0 {
		windowMS = 1000
	}

	res, err := redisAdmitScript.Run(ctx, l.client, []string{l.keyFor(key)}, limit, windowMS).Int64Slice()
	if err != nil {
		return false, window, err
	}
	if len(res) != 2 {
		return false, window, fmt.Errorf("admit script returned %d values, want 2", len(res))
	}

	retryAfter := time.Duration(res[1]) * time.Millisecond
	if retryAfter <= 0 {
		retryAfter = window
	}
	return res[0] == 1, retryAfter, nil
}
