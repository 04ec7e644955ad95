package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type cacheEntry[V any] struct {
	Value    V         `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

// TTLCache serves values of one logical dataset. Keys are prefixed with the
// namespace so instances sharing a store never collide.
//
// Concurrent misses on the same key share a single producer call. Values handed
// out from a shared call are the same instance, so callers must not mutate them.
type TTLCache[V any] struct {
	namespace string
	store     Cache
	ttl       time.Duration
	now       func() time.Time
	flight    singleflight.Group
	log       *zap.Logger
}

func NewTTLCache[V any](namespace string, store Cache, ttl time.Duration, log *zap.Logger) *TTLCache[V] {
	return &TTLCache[V]{
		namespace: namespace,
		store:     store,
		ttl:       ttl,
		now:       time.Now,
		log:       log.With(zap.String("cache", namespace)),
	}
}

// GetOrCompute returns the live entry for key, or runs produce and stores its result.
// Producer errors are returned unchanged and never cached.
func (c *TTLCache[V]) GetOrCompute(ctx context.Context, key string, produce func(context.Context) (V, error)) (V, error) {
	var zero V
	full := c.namespace + ":" + key
	if v, ok := c.lookup(ctx, full); ok {
		return v, nil
	}

	for attempt := 0; ; attempt++ {
		ch := c.flight.DoChan(full, func() (any, error) {
			// a previous leader may have filled the entry between our lookup and now
			if v, ok := c.lookup(ctx, full); ok {
				return v, nil
			}
			v, err := produce(ctx)
			if err != nil {
				return v, err
			}
			c.fill(ctx, full, v)
			return v, nil
		})

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				// the leader was cancelled but this caller is still live: take over once
				if res.Shared && attempt == 0 && ctx.Err() == nil && isContextErr(res.Err) {
					continue
				}
				return zero, res.Err
			}
			v, _ := res.Val.(V)
			return v, nil
		}
	}
}

func (c *TTLCache[V]) lookup(ctx context.Context, key string) (V, bool) {
	var zero V
	b, ok := c.store.Get(ctx, key)
	if !ok {
		return zero, false
	}
	var entry cacheEntry[V]
	if err := UnmarshalCache(b, &entry); err != nil {
		c.log.Warn("drop undecodable cache entry", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	if c.now().Sub(entry.StoredAt) >= c.ttl {
		return zero, false
	}
	return entry.Value, true
}

func (c *TTLCache[V]) fill(ctx context.Context, key string, v V) {
	b, err := MarshalCache(cacheEntry[V]{Value: v, StoredAt: c.now()})
	if err != nil {
		c.log.Warn("encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	// the producer already succeeded; a caller hanging up now should not lose the entry
	if err := c.store.Set(context.WithoutCancel(ctx), key, b, c.ttl); err != nil {
		c.log.Warn("store cache entry", zap.String("key", key), zap.Error(err))
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
