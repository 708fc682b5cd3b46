package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"construction-course-checkout/internal/domain/model"
	"construction-course-checkout/internal/domain/ports/repository"
	"construction-course-checkout/internal/infra/metrics"
	red "construction-course-checkout/internal/infra/redis"
)

var _ repository.CatalogRepository = (*catalogRepoCacheDecorator)(nil)

// catalogRepoCacheDecorator serves subject lookups from Redis. Prices change
// rarely and every checkout hits the catalog, so cache-aside pays off here.
type catalogRepoCacheDecorator struct {
	inner repository.CatalogRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewCatalogRepoCacheDecorator(inner repository.CatalogRepository, cache red.RedisClient, ttl time.Duration) repository.CatalogRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &catalogRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func subjectCacheKey(subjectType model.SubjectType, id string) string {
	return fmt.Sprintf("subject:%s:%s", subjectType, id)
}

func (d *catalogRepoCacheDecorator) FindSubject(ctx context.Context, tx repository.Tx, subjectType model.SubjectType, id string) (*model.Subject, error) {
	key := subjectCacheKey(subjectType, id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("catalog", "hit")
		var s model.Subject
		if json.Unmarshal([]byte(val), &s) == nil {
			return &s, nil
		}
	}

	metrics.IncCacheRequest("catalog", "miss")
	s, err := d.inner.FindSubject(ctx, tx, subjectType, id)
	if err != nil {
		return nil, err
	}
	if s != nil {
		bytes, _ := json.Marshal(s)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return s, nil
}

// Write operations invalidate the cached subject.
func (d *catalogRepoCacheDecorator) SaveCourse(ctx context.Context, tx repository.Tx, c *model.Course) error {
	d.cache.Del(ctx, subjectCacheKey(model.SubjectCourse, c.ID))
	return d.inner.SaveCourse(ctx, tx, c)
}

func (d *catalogRepoCacheDecorator) SavePlan(ctx context.Context, tx repository.Tx, p *model.SubscriptionPlan) error {
	d.cache.Del(ctx, subjectCacheKey(model.SubjectSubscription, p.ID))
	return d.inner.SavePlan(ctx, tx, p)
}
