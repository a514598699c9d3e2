package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"commerce-entitlement-service/internal/domain/model"
	"commerce-entitlement-service/internal/domain/ports/repository"
	"commerce-entitlement-service/internal/infra/metrics"
	red "commerce-entitlement-service/internal/infra/redis"
)

var _ repository.CatalogRepository = (*catalogRepoCacheDecorator)(nil)

// catalogRepoCacheDecorator is a read-through cache for catalog lookups.
// The catalog changes rarely and is read on every checkout and
// activation, so a short TTL saves most of the traffic. There is no
// invalidation path because this service never writes the catalog.
type catalogRepoCacheDecorator struct {
	inner repository.CatalogRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewCatalogRepoCacheDecorator(inner repository.CatalogRepository, cache red.RedisClient, ttl time.Duration) repository.CatalogRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &catalogRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *catalogRepoCacheDecorator) FindMembershipPlan(ctx context.Context, id string) (*model.MembershipPlan, error) {
	key := fmt.Sprintf("catalog:plan:%s", id)
	// A flaky cache never fails a lookup; any Get error falls through to
	// the inner repository.
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("membership_plan", "hit")
		var plan model.MembershipPlan
		if json.Unmarshal([]byte(val), &plan) == nil {
			return &plan, nil
		}
	}

	metrics.IncCacheRequest("membership_plan", "miss")
	plan, err := d.inner.FindMembershipPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(plan); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return plan, nil
}

func (d *catalogRepoCacheDecorator) FindItem(ctx context.Context, kind model.SubjectKind, id string) (*model.CatalogItem, error) {
	key := fmt.Sprintf("catalog:item:%s:%s", kind, id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("catalog_item", "hit")
		var item model.CatalogItem
		if json.Unmarshal([]byte(val), &item) == nil {
			return &item, nil
		}
	}

	metrics.IncCacheRequest("catalog_item", "miss")
	item, err := d.inner.FindItem(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(item); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return item, nil
}
