package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript returns {allowed, count, pttl}. A rejected request does not touch the counter.
var fixedWindowScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
local max = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
if not current then
  redis.call('SET', KEYS[1], 1, 'PX', window)
  return {1, 1, window}
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], window)
  ttl = window
end
current = tonumber(current)
if current < max then
  redis.call('INCR', KEYS[1])
  return {1, current + 1, ttl}
end
return {0, current, ttl}
`)

var _ Admitter = (*RedisLimiter)(nil)

// RedisLimiter shares windows across gateway replicas. Expiry is handled by
// key TTLs, so it needs no sweep.
type RedisLimiter struct {
	client redis.Scripter
	max    int
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedisLimiter(client redis.Scripter, max int, size time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		max:    max,
		window: size,
		prefix: "rate_limit:client:",
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + key}, l.max, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}

	ttl := time.Duration(res[2]) * time.Millisecond
	d := Decision{
		Allowed:   res[0] == 1,
		Limit:     l.max,
		Remaining: l.max - int(res[1]),
		ResetAt:   l.now().Add(ttl),
	}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if !d.Allowed {
		d.RetryAfter = ttl
	}
	return d, nil
}
