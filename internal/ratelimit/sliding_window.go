package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	RequestsPerWindow int
	Window            time.Duration
}

type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

// SlidingWindowLimiter keeps request timestamps per key in a Redis sorted set.
type SlidingWindowLimiter struct {
	client *redis.Client
	cfg    Config
	prefix string
	now    func() time.Time
}

func NewSlidingWindowLimiter(client *redis.Client, cfg Config, prefix string) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{client: client, cfg: cfg, prefix: prefix, now: time.Now}
}

// trim, count and conditional insert run atomically.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local seq_key = KEYS[2]
	local now = tonumber(ARGV[1])
	local window_ms = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window_ms)
	local count = redis.call('ZCARD', key)

	if count < limit then
		local seq = redis.call('INCR', seq_key)
		redis.call('ZADD', key, now, now .. ':' .. seq)
		redis.call('PEXPIRE', key, window_ms)
		redis.call('PEXPIRE', seq_key, window_ms)
		return {1, limit - count - 1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local retry = 0
	if #oldest >= 2 then
		retry = tonumber(oldest[2]) + window_ms - now
	end
	return {0, 0, retry}
`)

func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	now := l.now()
	redisKey := l.prefix + key
	windowMs := l.cfg.Window.Milliseconds()

	vals, err := slidingWindowScript.Run(ctx, l.client, []string{redisKey, redisKey + ":seq"},
		now.UnixMilli(), windowMs, l.cfg.RequestsPerWindow,
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}
	if len(vals) < 3 {
		return nil, fmt.Errorf("rate limit script: unexpected result length %d", len(vals))
	}

	res := &Result{
		Allowed:   vals[0] == 1,
		Limit:     l.cfg.RequestsPerWindow,
		Remaining: int(vals[1]),
		ResetAt:   now.Add(l.cfg.Window),
	}
	if !res.Allowed && vals[2] > 0 {
		res.RetryAfter = time.Duration(vals[2]) * time.Millisecond
		res.ResetAt = now.Add(res.RetryAfter)
	}
	return res, nil
}
