package cache

import (
	"context"
	"time"
)

// LayeredCache reads through a local L1 to a shared L2 and writes to both.
type LayeredCache struct {
	l1          Service
	l2          Service
	backfillTTL time.Duration
}

func NewLayeredCache(l1, l2 Service, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{BackfillTTL: 5 * time.Minute}
	for _, opt := range opts {
		opt(cfg)
	}
	return &LayeredCache{l1: l1, l2: l2, backfillTTL: cfg.BackfillTTL}
}

// Set writes L2 first so a failed shared write leaves no local-only entry.
func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := lc.l2.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	return lc.l1.Set(ctx, key, value, expiration)
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.l1.Get(ctx, key, dest); err == nil {
		return nil
	}

	var raw []byte
	if err := lc.l2.Get(ctx, key, &raw); err != nil {
		return err
	}

	_ = lc.l1.Set(ctx, key, raw, lc.backfill(ctx, key))
	return decode(raw, dest)
}

func (lc *LayeredCache) backfill(ctx context.Context, key string) time.Duration {
	ttl := lc.backfillTTL
	if e, ok := lc.l2.(Expirer); ok {
		if left, err := e.TTL(ctx, key); err == nil && left > 0 && left < ttl {
			ttl = left
		}
	}
	return ttl
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.l1.Delete(ctx, keys...)
	return lc.l2.Delete(ctx, keys...)
}

// Close closes both layers.
func (lc *LayeredCache) Close() error {
	_ = lc.l1.Close()
	return lc.l2.Close()
}
