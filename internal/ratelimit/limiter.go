// Package ratelimit allows a fixed number of calls per key within a rolling window.
package ratelimit

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Store records a call for key when fewer than limit calls were recorded within the
// window ending now. Rejected calls are not recorded.
type Store interface {
	Take(ctx context.Context, key string, limit int64, window time.Duration) (bool, error)
}

// Limiter allows at most limit calls per key within any window of the given length.
type Limiter struct {
	store  Store
	limit  int64
	window time.Duration
	prefix string
}

// New returns a Limiter. A non positive limit disables limiting.
func New(store Store, prefix string, limit int, window time.Duration) *Limiter {
	return &Limiter{
		store:  store,
		limit:  int64(limit),
		window: window,
		prefix: prefix,
	}
}

// Allow reports whether a call for key is within the limit. Store errors are logged and
// the call is allowed.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}

	ok, err := l.store.Take(ctx, l.prefix+":"+key, l.limit, l.window)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("rate limit store failed, allowing")
		return true, nil
	}

	return ok, nil
}

// takeScript keeps one sorted set member per allowed call, scored by its time in
// milliseconds. Pruning, counting, recording and the TTL run as one atomic step.
var takeScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

if redis.call('ZCARD', key) >= limit then
	redis.call('PEXPIRE', key, window)
	return 0
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return 1
`)

// RedisStore keeps call logs in Redis so limits hold across instances.
type RedisStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisStore returns a RedisStore over client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// Take implements Store.
func (s *RedisStore) Take(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	now := s.now()
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString()

	allowed, err := takeScript.Run(ctx, s.client, []string{key},
		now.UnixMilli(), window.Milliseconds(), limit, member).Int64()
	if err != nil {
		return false, err
	}

	return allowed == 1, nil
}

// MemoryStore keeps call logs in process.
type MemoryStore struct {
	mu   sync.Mutex
	logs map[string][]time.Time
	now  func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		logs: make(map[string][]time.Time),
		now:  time.Now,
	}
}

// Take implements Store.
func (s *MemoryStore) Take(_ context.Context, key string, limit int64, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	calls := prune(s.logs[key], now, window)

	if int64(len(calls)) >= limit {
		s.logs[key] = calls
		return false, nil
	}

	s.logs[key] = append(calls, now)

	if len(s.logs) > 1024 {
		s.evict(now, window)
	}

	return true, nil
}

// prune drops the calls that left the window ending at now. calls is ordered by time.
func prune(calls []time.Time, now time.Time, window time.Duration) []time.Time {
	i := 0
	for i < len(calls) && now.Sub(calls[i]) >= window {
		i++
	}

	return calls[i:]
}

func (s *MemoryStore) evict(now time.Time, window time.Duration) {
	for k, calls := range s.logs {
		if len(prune(calls, now, window)) == 0 {
			delete(s.logs, k)
		}
	}
}
