package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/netplexflix/what-to-watch/logging"
)

// CachedProvider memoizes candidate listings in Redis. Library listings are
// the expensive call and identical filters repeat across sessions. Cache
// failures only cost the memoization: reads fall through to the inner
// provider. A nil client turns the wrapper into a pass-through.
type CachedProvider struct {
	next Provider
	rdb  *redis.Client
	ttl  time.Duration
}

func NewCachedProvider(next Provider, rdb *redis.Client, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedProvider{next: next, rdb: rdb, ttl: ttl}
}

func (p *CachedProvider) ListCandidates(ctx context.Context, filters Filters) ([]Item, error) {
	if p.rdb == nil {
		return p.next.ListCandidates(ctx, filters)
	}

	key := listCacheKey(filters)
	cached, err := p.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var items []Item
		if err := json.Unmarshal(cached, &items); err == nil {
			return items, nil
		}
		logging.Log.Warnf("CATALOG: dropping corrupt cache entry %s", key)
	} else if !errors.Is(err, redis.Nil) {
		logging.Log.Warnf("CATALOG: cache read failed: %v", err)
	}

	items, err := p.next.ListCandidates(ctx, filters)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(items); err == nil {
		if err := p.rdb.Set(ctx, key, data, p.ttl).Err(); err != nil {
			logging.Log.Warnf("CATALOG: cache write failed: %v", err)
		}
	}
	return items, nil
}

// GetItems is not cached: it runs once per session at queue fetch time and
// servers mark items watched between calls.
func (p *CachedProvider) GetItems(ctx context.Context, itemIDs []string) ([]Item, error) {
	return p.next.GetItems(ctx, itemIDs)
}

func listCacheKey(filters Filters) string {
	raw, _ := json.Marshal(filters)
	sum := sha256.Sum256(raw)
	return "catalog:list:" + hex.EncodeToString(sum[:])
}
