package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces limiter state in Redis.
const redisKeyPrefix = "ratelimit:deeplink:"

// tokenBucketScript implements the token bucket atomically: refill and
// consumption happen in a single Redis round trip.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])      -- tokens per second
	local burst = tonumber(ARGV[2])     -- bucket capacity
	local now = tonumber(ARGV[3])       -- current time in seconds
	local ttl = tonumber(ARGV[4])       -- key TTL in seconds

	local data = redis.call('HMGET', key, 'tokens', 'last_update')
	local tokens = tonumber(data[1]) or burst
	local last_update = tonumber(data[2]) or now

	local elapsed = now - last_update
	tokens = math.min(burst, tokens + (elapsed * rate))

	local allowed = 0
	local retry_after = 0

	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) / rate)
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_update', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens)}
`)

// RedisLimiter is a token bucket shared across engine instances.
type RedisLimiter struct {
	client   *redis.Client
	requests int
	window   time.Duration
	burst    int
	now      func() time.Time
}

// NewRedisLimiter allows `requests` calls per `window` with the given
// burst capacity, tracked in Redis.
func NewRedisLimiter(client *redis.Client, requests int, window time.Duration, burst int) *RedisLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RedisLimiter{
		client:   client,
		requests: requests,
		window:   window,
		burst:    burst,
		now:      time.Now,
	}
}

// Allow consumes one token for the identifier. On Redis errors the
// limiter fails open: the request is allowed rather than blocking the
// whole pipeline on limiter availability.
func (l *RedisLimiter) Allow(ctx context.Context, identifier string) (Decision, error) {
	key := redisKeyPrefix + identifier
	ratePerSecond := float64(l.requests) / l.window.Seconds()
	ttl := int((2 * l.window).Seconds())
	if ttl < 1 {
		ttl = 1
	}

	result, err := tokenBucketScript.Run(ctx, l.client,
		[]string{key},
		ratePerSecond, l.burst, l.now().Unix(), ttl,
	).Int64Slice()
	if err != nil || len(result) != 3 {
		return Decision{Allowed: true, Remaining: int64(l.burst)}, nil
	}

	return Decision{
		Allowed:    result[0] == 1,
		RetryAfter: time.Duration(result[1]) * time.Second,
		Remaining:  result[2],
	}, nil
}
