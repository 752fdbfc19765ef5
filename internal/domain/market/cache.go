package market

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	cacheKey = "luvy:market:current"
	cacheTTL = 30 * time.Second
)

// Cache holds the last committed MarketData for cheap reads
type Cache interface {
	Get(ctx context.Context) (*MarketData, bool)
	Set(ctx context.Context, md *MarketData)
}

// NewCache returns a Redis-backed cache, or a disabled one when client is nil
func NewCache(client *redis.Client) Cache {
	if client == nil {
		return noCache{}
	}
	return &redisCache{client: client}
}

// setIfNewer stores the entry only when its version is newer than the cached
// one, so late after-commit writes and read-path fills never roll the price back.
var setIfNewer = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'version')
if current and tonumber(current) >= tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'version', ARGV[1], 'data', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

type redisCache struct {
	client *redis.Client
}

func (c *redisCache) Get(ctx context.Context) (*MarketData, bool) {
	raw, err := c.client.HGet(ctx, cacheKey, "data").Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("Market cache read failed")
		}
		return nil, false
	}
	var md MarketData
	if err := json.Unmarshal(raw, &md); err != nil {
		return nil, false
	}
	return &md, true
}

// Set caches md versioned by its UpdatedAt in microseconds
func (c *redisCache) Set(ctx context.Context, md *MarketData) {
	raw, err := json.Marshal(md)
	if err != nil {
		return
	}
	err = setIfNewer.Run(ctx, c.client, []string{cacheKey},
		md.UpdatedAt.UnixMicro(), raw, cacheTTL.Milliseconds()).Err()
	if err != nil {
		log.Warn().Err(err).Msg("Market cache write failed")
	}
}

type noCache struct{}

func (noCache) Get(context.Context) (*MarketData, bool) { return nil, false }
func (noCache) Set(context.Context, *MarketData)         {}
