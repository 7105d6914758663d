package decorator

import (
	"context"
	"time"
)

type (
	// CacheStatus reports how a cached query was served.
	CacheStatus string

	cacheStatusKey struct{}

	CacheConfig struct {
		Enabled bool
		TTL     time.Duration
		// SetTimeout bounds the background write of a fresh result.
		SetTimeout time.Duration
	}

	CacheGetter[Q Query, R Result] interface {
		Get(ctx context.Context, query Q) (R, bool, error)
	}

	CacheSetter[Q Query, R Result] interface {
		Set(ctx context.Context, query Q, result R, ttl time.Duration) error
	}

	Cache[Q Query, R Result] interface {
		CacheGetter[Q, R]
		CacheSetter[Q, R]
	}

	queryCachingDecorator[Q Query, R Result] struct {
		base   QueryHandler[Q, R]
		cache  Cache[Q, R]
		config CacheConfig
	}
)

const (
	CacheStatusHit    CacheStatus = "HIT"
	CacheStatusMiss   CacheStatus = "MISS"
	CacheStatusBypass CacheStatus = "BYPASS"
	CacheStatusError  CacheStatus = "ERROR"

	defaultCacheSetTimeout = 2 * time.Second
)

// WithCacheStatus installs a status slot in ctx. Caching decorators executed
// with the returned context record how they served the query into it.
func WithCacheStatus(ctx context.Context) context.Context {
	status := CacheStatusBypass

	return context.WithValue(ctx, cacheStatusKey{}, &status)
}

// GetCacheStatus returns the status recorded in ctx, BYPASS when none was.
func GetCacheStatus(ctx context.Context) CacheStatus {
	if status, ok := ctx.Value(cacheStatusKey{}).(*CacheStatus); ok && status != nil {
		return *status
	}

	return CacheStatusBypass
}

func recordCacheStatus(ctx context.Context, status CacheStatus) {
	if slot, ok := ctx.Value(cacheStatusKey{}).(*CacheStatus); ok && slot != nil {
		*slot = status
	}
}

// NewQueryCachingDecorator serves query results from cache when possible and
// stores fresh results asynchronously.
func NewQueryCachingDecorator[Q Query, R Result](
	base QueryHandler[Q, R],
	cache Cache[Q, R],
	config CacheConfig,
) QueryHandler[Q, R] {
	if config.SetTimeout <= 0 {
		config.SetTimeout = defaultCacheSetTimeout
	}

	return queryCachingDecorator[Q, R]{
		base:   base,
		cache:  cache,
		config: config,
	}
}

func (d queryCachingDecorator[Q, R]) Execute(ctx context.Context, query Q) (R, error) {
	var zero R

	if !d.config.Enabled || d.cache == nil {
		recordCacheStatus(ctx, CacheStatusBypass)

		return d.base.Execute(ctx, query)
	}

	cached, hit, err := d.cache.Get(ctx, query)
	if err == nil && hit {
		recordCacheStatus(ctx, CacheStatusHit)

		return cached, nil
	}

	result, execErr := d.base.Execute(ctx, query)
	if execErr != nil {
		return zero, execErr
	}

	if err != nil {
		recordCacheStatus(ctx, CacheStatusError)
	} else {
		recordCacheStatus(ctx, CacheStatusMiss)
	}

	go func() {
		setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.config.SetTimeout)
		defer cancel()

		_ = d.cache.Set(setCtx, query, result, d.config.TTL)
	}()

	return result, nil
}
