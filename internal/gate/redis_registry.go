package gate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// claimScript sets every key to the owner unless one of them is held by a
// different owner, in which case the 1-based positions of those keys are
// returned and nothing is written.
var claimScript = redis.NewScript(`
	local owner = ARGV[1]
	local ttl_ms = tonumber(ARGV[2])
	local taken = {}
	for i, key in ipairs(KEYS) do
		local cur = redis.call('GET', key)
		if cur and cur ~= owner then
			table.insert(taken, i)
		end
	end
	if #taken > 0 then
		return taken
	end
	for _, key in ipairs(KEYS) do
		redis.call('SET', key, owner, 'PX', ttl_ms)
	end
	return taken
`)

// releaseScript deletes the keys whose value is the owner and returns how
// many were deleted.
var releaseScript = redis.NewScript(`
	local n = 0
	for _, key in ipairs(KEYS) do
		if redis.call('GET', key) == ARGV[1] then
			redis.call('DEL', key)
			n = n + 1
		end
	end
	return n
`)

// RedisRegistry stores one key per claimed seat:
//
//	{prefix}:{queue}:{seatID} = ownerID
//
// The queue name is a hash tag so every key of a namespace lands in the
// same cluster slot and the multi-key scripts stay valid.
type RedisRegistry struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisRegistry returns a registry on rdb with keys under prefix.
func NewRedisRegistry(rdb redis.UniversalClient, prefix string) *RedisRegistry {
	if prefix == "" {
		prefix = "claims"
	}
	return &RedisRegistry{rdb: rdb, prefix: prefix}
}

func (r *RedisRegistry) key(queueName string, seatID uint64) string {
	return fmt.Sprintf("%s:{%s}:%d", r.prefix, queueName, seatID)
}

func (r *RedisRegistry) keys(queueName string, seatIDs []uint64) []string {
	out := make([]string, len(seatIDs))
	for i, id := range seatIDs {
		out[i] = r.key(queueName, id)
	}
	return out
}

// Claimed implements Registry.
func (r *RedisRegistry) Claimed(ctx context.Context, queueName string, seatIDs []uint64) ([]uint64, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}
	vals, err := r.rdb.MGet(ctx, r.keys(queueName, seatIDs)...).Result()
	if err != nil {
		return nil, err
	}
	var taken []uint64
	for i, v := range vals {
		if v != nil {
			taken = append(taken, seatIDs[i])
		}
	}
	return taken, nil
}

// Claim implements Registry.
func (r *RedisRegistry) Claim(ctx context.Context, queueName string, ownerID uint64, seatIDs []uint64, ttl time.Duration) ([]uint64, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}
	pos, err := claimScript.Run(ctx, r.rdb, r.keys(queueName, seatIDs),
		strconv.FormatUint(ownerID, 10), ttl.Milliseconds()).Int64Slice()
	if err != nil {
		return nil, err
	}
	var taken []uint64
	for _, p := range pos {
		if p >= 1 && int(p) <= len(seatIDs) {
			taken = append(taken, seatIDs[p-1])
		}
	}
	return taken, nil
}

// Release implements Registry.
func (r *RedisRegistry) Release(ctx context.Context, queueName string, ownerID uint64, seatIDs []uint64) (int, error) {
	if len(seatIDs) == 0 {
		return 0, nil
	}
	n, err := releaseScript.Run(ctx, r.rdb, r.keys(queueName, seatIDs), strconv.FormatUint(ownerID, 10)).Int()
	if err != nil {
		return 0, err
	}
	return n, nil
}
