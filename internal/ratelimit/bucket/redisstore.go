package bucket

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// admitScript implements the read-refill-charge cycle as a single Redis Lua
// script, so the read, refill, and charge happen as one atomic transaction.
// Bucket state is stored as a Redis hash with fields "tokens" and
// "lastRefill"; the TTL is reapplied on every write so an idle client's row
// expires instead of accumulating forever.
var admitScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local cost = tonumber(ARGV[2])
local capacity = tonumber(ARGV[3])
local refill_rate = tonumber(ARGV[4])
local key_expiry_ms = tonumber(ARGV[5])

local tokens = capacity
local last_refill = now_ms

local existing = redis.call("HMGET", key, "tokens", "lastRefill")
if existing[1] then
  tokens = tonumber(existing[1])
  last_refill = tonumber(existing[2])
end

local elapsed = now_ms - last_refill
if elapsed > 0 then
  tokens = math.min(capacity, tokens + refill_rate * elapsed / 1000)
end

local success
local retry_after_ms = 0
if tokens >= cost then
  tokens = tokens - cost
  success = 1
else
  success = 0
  retry_after_ms = math.ceil((cost - tokens) * 1000 / refill_rate)
end

redis.call("HSET", key, "tokens", tokens, "lastRefill", now_ms)
redis.call("PEXPIRE", key, key_expiry_ms)

return {success, tostring(tokens), retry_after_ms}
`)

// RedisStore is the production Store implementation, grounded on go-redis's
// redis.Script/EvalSha helper for atomic multi-step transactions.
type RedisStore struct {
	client    redis.Scripter
	keyPrefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix namespaces every client's hash key, e.g. "qgate:bucket:".
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) { s.keyPrefix = prefix }
}

// NewRedisStore builds a RedisStore against any redis.Scripter (satisfied
// by *redis.Client and *redis.ClusterClient alike).
func NewRedisStore(client redis.Scripter, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client, keyPrefix: "qgate:bucket:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Admit(ctx context.Context, clientID string, p AdmitParams) (StoreResult, error) {
	key := s.keyPrefix + clientID
	raw, err := admitScript.Run(ctx, s.client, []string{key},
		p.NowMs, p.Cost, p.Capacity, p.RefillRate, p.KeyExpiryMs).Result()
	if err != nil {
		return StoreResult{}, fmt.Errorf("bucket: redis admit script: %w", err)
	}

	fields, ok := raw.([]any)
	if !ok || len(fields) != 3 {
		return StoreResult{}, fmt.Errorf("bucket: unexpected admit script result shape %T", raw)
	}

	success, ok := fields[0].(int64)
	if !ok {
		return StoreResult{}, fmt.Errorf("bucket: admit script returned non-integer success flag")
	}
	tokensRaw, ok := fields[1].(string)
	if !ok {
		return StoreResult{}, fmt.Errorf("bucket: admit script returned non-string tokens")
	}
	var tokens float64
	if _, err := fmt.Sscanf(tokensRaw, "%g", &tokens); err != nil {
		return StoreResult{}, fmt.Errorf("bucket: parsing tokens %q: %w", tokensRaw, err)
	}
	retryAfter, ok := fields[2].(int64)
	if !ok {
		return StoreResult{}, fmt.Errorf("bucket: admit script returned non-integer retryAfterMs")
	}

	return StoreResult{Success: success == 1, Tokens: tokens, RetryAfterMs: retryAfter}, nil
}
