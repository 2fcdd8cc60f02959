// internal/ratelimit/redis.go
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// acquireScript checks both scope counters and increments them in one atomic
// step, so a concurrent manual batch and driver tick can never jointly
// overshoot a limit.
var acquireScript = redis.NewScript(`
local day = tonumber(redis.call("GET", KEYS[1]) or "0")
local hour = tonumber(redis.call("GET", KEYS[2]) or "0")
local dlimit = tonumber(ARGV[1])
local hlimit = tonumber(ARGV[2])
if dlimit > 0 and day >= dlimit then return 0 end
if hlimit > 0 and hour >= hlimit then return 0 end
if redis.call("INCR", KEYS[1]) == 1 then redis.call("EXPIRE", KEYS[1], ARGV[3]) end
if redis.call("INCR", KEYS[2]) == 1 then redis.call("EXPIRE", KEYS[2], ARGV[4]) end
return 1
`)

var releaseScript = redis.NewScript(`
for i = 1, 2 do
	local v = tonumber(redis.call("GET", KEYS[i]) or "0")
	if v > 0 then redis.call("DECR", KEYS[i]) end
end
return 1
`)

// RedisCounterStore keeps the scheduler counters in Redis so that every
// process sharing the instance sees the same quota.
type RedisCounterStore struct {
	client *redis.Client
}

func NewRedisCounterStore(addr, password string) (*RedisCounterStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisCounterStore{client: client}, nil
}

var _ CounterStore = (*RedisCounterStore)(nil)

func (s *RedisCounterStore) Acquire(ctx context.Context, campaignID int, t time.Time, dailyLimit, hourlyLimit int) (bool, error) {
	dayTTL, hourTTL := ttls(t)
	keys := []string{dayKey(campaignID, t), hourKey(campaignID, t)}
	ok, err := acquireScript.Run(ctx, s.client, keys,
		dailyLimit, hourlyLimit,
		int(dayTTL.Seconds()), int(hourTTL.Seconds()),
	).Int()
	if err != nil {
		return false, err
	}
	return ok == 1, nil
}

func (s *RedisCounterStore) Release(ctx context.Context, campaignID int, t time.Time) error {
	keys := []string{dayKey(campaignID, t), hourKey(campaignID, t)}
	return releaseScript.Run(ctx, s.client, keys).Err()
}

func (s *RedisCounterStore) SentToday(ctx context.Context, campaignID int, t time.Time) (int, error) {
	n, err := s.client.Get(ctx, dayKey(campaignID, t)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

func (s *RedisCounterStore) Close() error {
	return s.client.Close()
}
