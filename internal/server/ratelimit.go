package server

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"sprint-poker/internal/api"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// tokenBucketScript refills the bucket by elapsed*rate, then takes the
// requested tokens if it can. Returns {allowed, remaining, retry_after}.
const tokenBucketScript = `
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

local bucket = redis.call('HMGET', key, 'tokens', 'updated_at')
local tokens = tonumber(bucket[1])
local updated_at = tonumber(bucket[2])
if tokens == nil or updated_at == nil then
    tokens = capacity
    updated_at = now
end

tokens = math.min(capacity, tokens + math.max(0, now - updated_at) * rate)

local allowed = 0
local retry_after = 0
if tokens >= requested then
    tokens = tokens - requested
    allowed = 1
else
    retry_after = (requested - tokens) / rate
end

redis.call('HMSET', key, 'tokens', tokens, 'updated_at', now)
redis.call('EXPIRE', key, 3600)
return {allowed, math.floor(tokens), math.ceil(retry_after)}
`

type rateLimiter struct {
	client *redis.Client
	script *redis.Script
	qps    int
	now    func() time.Time
}

type limitDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter int
}

func newRateLimiter(client *redis.Client, qps int) *rateLimiter {
	if qps <= 0 {
		qps = 1
	}
	return &rateLimiter{
		client: client,
		script: redis.NewScript(tokenBucketScript),
		qps:    qps,
		now:    time.Now,
	}
}

func (l *rateLimiter) capacity() int {
	return 2 * l.qps
}

// allow takes one token from key's bucket. Redis failures let the request
// through.
func (l *rateLimiter) allow(ctx context.Context, key string) limitDecision {
	if l == nil || l.client == nil {
		return limitDecision{Allowed: true, Remaining: -1}
	}
	now := float64(l.now().UnixNano()) / 1e9
	result, err := l.script.Run(ctx, l.client, []string{key}, l.capacity(), l.qps, now, 1).Result()
	if err != nil {
		log.Printf("rate limiter unavailable key=%s err=%v", key, err)
		return limitDecision{Allowed: true, Remaining: -1}
	}
	decision := limitDecision{Remaining: l.capacity()}
	if values, ok := result.([]any); ok && len(values) >= 3 {
		if v, ok := values[0].(int64); ok {
			decision.Allowed = v == 1
		}
		if v, ok := values[1].(int64); ok {
			decision.Remaining = int(v)
		}
		if v, ok := values[2].(int64); ok {
			decision.RetryAfter = int(v)
		}
	}
	return decision
}

func (s *Server) enforceRateLimit(c *gin.Context, action string) bool {
	decision := s.limiter.allow(c.Request.Context(), "rate_limit:"+action+":"+c.ClientIP())
	if decision.Remaining >= 0 {
		c.Header("X-RateLimit-Limit", strconv.Itoa(s.limiter.capacity()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	}
	if decision.Allowed {
		return true
	}
	log.Printf("rate limited action=%s ip=%s", action, c.ClientIP())
	c.Header("Retry-After", strconv.Itoa(decision.RetryAfter))
	c.JSON(http.StatusTooManyRequests, api.ErrorResponse{Error: "Too many requests, try again shortly"})
	return false
}
