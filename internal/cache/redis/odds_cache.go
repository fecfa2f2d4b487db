package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"betpool/internal/domain"
)

// OddsCache implements domain.OddsCache using Redis hashes. Each market's
// odds are stored as a hash at key "odds:{marketID}" with fields "home",
// "away" and "draw", expiring after the configured TTL. Values use the
// engine's fixed-point scale where 10000 means 1.0x.
type OddsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewOddsCache creates an OddsCache backed by the given Client. Cached
// entries expire after ttl.
func NewOddsCache(c *Client, ttl time.Duration) *OddsCache {
	return &OddsCache{rdb: c.Underlying(), ttl: ttl}
}

func oddsKey(marketID uint64) string {
	return "odds:" + strconv.FormatUint(marketID, 10)
}

// Set stores the odds for a market and refreshes the TTL.
func (oc *OddsCache) Set(ctx context.Context, marketID uint64, o domain.Odds) error {
	key := oddsKey(marketID)
	fields := map[string]interface{}{
		"home": strconv.FormatUint(o.Home, 10),
		"away": strconv.FormatUint(o.Away, 10),
		"draw": strconv.FormatUint(o.Draw, 10),
	}

	pipe := oc.rdb.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, oc.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set odds %d: %w", marketID, err)
	}
	return nil
}

// Get retrieves cached odds for a market. It returns domain.ErrMarketNotFound
// when the key is missing or expired; callers fall through to the engine.
func (oc *OddsCache) Get(ctx context.Context, marketID uint64) (domain.Odds, error) {
	vals, err := oc.rdb.HGetAll(ctx, oddsKey(marketID)).Result()
	if err != nil {
		return domain.Odds{}, fmt.Errorf("redis: get odds %d: %w", marketID, err)
	}
	if len(vals) == 0 {
		return domain.Odds{}, domain.ErrMarketNotFound
	}

	var o domain.Odds
	if o.Home, err = parseField(vals, "home"); err != nil {
		return domain.Odds{}, fmt.Errorf("redis: odds %d: %w", marketID, err)
	}
	if o.Away, err = parseField(vals, "away"); err != nil {
		return domain.Odds{}, fmt.Errorf("redis: odds %d: %w", marketID, err)
	}
	if o.Draw, err = parseField(vals, "draw"); err != nil {
		return domain.Odds{}, fmt.Errorf("redis: odds %d: %w", marketID, err)
	}
	return o, nil
}

// Invalidate drops the cached odds for a market. Stake mutations call this so
// the next read recomputes from live aggregates.
func (oc *OddsCache) Invalidate(ctx context.Context, marketID uint64) error {
	if err := oc.rdb.Del(ctx, oddsKey(marketID)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate odds %d: %w", marketID, err)
	}
	return nil
}

func parseField(vals map[string]string, field string) (uint64, error) {
	s, ok := vals[field]
	if !ok {
		return 0, domain.ErrMarketNotFound
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", field, err)
	}
	return v, nil
}

// Compile-time interface check.
var _ domain.OddsCache = (*OddsCache)(nil)
