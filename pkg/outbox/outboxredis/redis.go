package outboxredis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Abraxas-365/mandrillx/pkg/outbox"
	"github.com/redis/go-redis/v9"
)

// RedisQueue implements outbox.Queue backed by Redis. Entries are JSON
// strings, ready IDs a list and delayed IDs a sorted set scored by due time.
type RedisQueue struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisQueue creates a queue. Entries in a final state expire after ttl;
// zero keeps them forever.
func NewRedisQueue(rdb *redis.Client, prefix string, ttl time.Duration) *RedisQueue {
	if prefix == "" {
		prefix = "mandrillx:outbox"
	}
	return &RedisQueue{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (q *RedisQueue) queueKey(name string) string     { return fmt.Sprintf("%s:queue:%s", q.prefix, name) }
func (q *RedisQueue) scheduledKey(name string) string { return fmt.Sprintf("%s:scheduled:%s", q.prefix, name) }
func (q *RedisQueue) entryKey(id string) string       { return fmt.Sprintf("%s:entry:%s", q.prefix, id) }

// Enqueue stores the entry and makes it ready immediately.
func (q *RedisQueue) Enqueue(ctx context.Context, entry *outbox.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return redisErrors.NewWithCause(ErrMarshal, err)
	}

	pipe := q.rdb.Pipeline()
	pipe.Set(ctx, q.entryKey(entry.ID), data, 0)
	pipe.LPush(ctx, q.queueKey(entry.Queue), entry.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return redisErrors.NewWithCause(ErrEnqueue, err).WithDetail("queue", entry.Queue)
	}
	return nil
}

// EnqueueDelayed stores the entry and schedules it after delay.
func (q *RedisQueue) EnqueueDelayed(ctx context.Context, entry *outbox.Entry, delay time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return redisErrors.NewWithCause(ErrMarshal, err)
	}

	score := float64(time.Now().UTC().Add(delay).Unix())

	pipe := q.rdb.Pipeline()
	pipe.Set(ctx, q.entryKey(entry.ID), data, 0)
	pipe.ZAdd(ctx, q.scheduledKey(entry.Queue), redis.Z{Score: score, Member: entry.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return redisErrors.NewWithCause(ErrEnqueue, err).
			WithDetail("queue", entry.Queue).
			WithDetail("delay", delay.String())
	}
	return nil
}

// Get returns an entry by ID.
func (q *RedisQueue) Get(ctx context.Context, id string) (*outbox.Entry, error) {
	data, err := q.rdb.Get(ctx, q.entryKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, redisErrors.New(ErrNotFound).WithDetail("entry_id", id)
		}
		return nil, redisErrors.NewWithCause(ErrGet, err).WithDetail("entry_id", id)
	}

	var entry outbox.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, redisErrors.NewWithCause(ErrUnmarshal, err).WithDetail("entry_id", id)
	}
	return &entry, nil
}

// Dequeue blocks until an entry is ready or the timeout expires, and marks
// it as sending.
func (q *RedisQueue) Dequeue(ctx context.Context, queue string, timeout time.Duration) (*outbox.Entry, error) {
	result, err := q.rdb.BRPop(ctx, timeout, q.queueKey(queue)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return nil, nil
		}
		return nil, redisErrors.NewWithCause(ErrDequeue, err).WithDetail("queue", queue)
	}

	// result[0] = key, result[1] = entry ID
	entry, err := q.Get(ctx, result[1])
	if err != nil {
		return nil, err
	}

	entry.Start(time.Now().UTC())
	if err := q.Save(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Save overwrites the stored entry. Sent and failed entries get the
// configured TTL.
func (q *RedisQueue) Save(ctx context.Context, entry *outbox.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return redisErrors.NewWithCause(ErrMarshal, err).WithDetail("entry_id", entry.ID)
	}

	if err := q.rdb.Set(ctx, q.entryKey(entry.ID), data, q.expiration(entry)).Err(); err != nil {
		return redisErrors.NewWithCause(ErrSave, err).WithDetail("entry_id", entry.ID)
	}
	return nil
}

func (q *RedisQueue) expiration(entry *outbox.Entry) time.Duration {
	if entry.Status == outbox.StatusSent || entry.Status == outbox.StatusFailed {
		return q.ttl
	}
	return 0
}

// Retry schedules the entry again after delay.
func (q *RedisQueue) Retry(ctx context.Context, entry *outbox.Entry, delay time.Duration) error {
	score := float64(time.Now().UTC().Add(delay).Unix())

	if err := q.rdb.ZAdd(ctx, q.scheduledKey(entry.Queue), redis.Z{
		Score:  score,
		Member: entry.ID,
	}).Err(); err != nil {
		return redisErrors.NewWithCause(ErrRetry, err).WithDetail("entry_id", entry.ID)
	}
	return nil
}

// promoteScript moves due IDs from the scheduled set to the ready list
// atomically.
var promoteScript = redis.NewScript(`
local scheduled_key = KEYS[1]
local queue_key = KEYS[2]
local now = tonumber(ARGV[1])
local ids = redis.call('ZRANGEBYSCORE', scheduled_key, '-inf', now)
if #ids > 0 then
    for _, id in ipairs(ids) do
        redis.call('LPUSH', queue_key, id)
    end
    redis.call('ZREMRANGEBYSCORE', scheduled_key, '-inf', now)
end
return #ids
`)

// PromoteScheduled makes due entries ready.
func (q *RedisQueue) PromoteScheduled(ctx context.Context, queue string) error {
	now := strconv.FormatInt(time.Now().UTC().Unix(), 10)

	err := promoteScript.Run(ctx, q.rdb, []string{q.scheduledKey(queue), q.queueKey(queue)}, now).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return redisErrors.NewWithCause(ErrPromote, err).WithDetail("queue", queue)
	}
	return nil
}
