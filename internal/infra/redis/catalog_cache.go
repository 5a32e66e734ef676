package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"course-commerce/internal/domain/model"
	"course-commerce/internal/domain/ports/repository"
	"course-commerce/internal/infra/metrics"
)

// CachedCourseRepo decorates the Postgres course repository with a
// read-through cache. Lookups made inside a transaction bypass the cache so
// transactional reads always see committed-or-own writes.
type CachedCourseRepo struct {
	inner  repository.CourseRepository
	client RedisClient
	ttl    time.Duration
}

var _ repository.CourseRepository = (*CachedCourseRepo)(nil)

func NewCachedCourseRepo(inner repository.CourseRepository, client RedisClient, ttl time.Duration) *CachedCourseRepo {
	return &CachedCourseRepo{inner: inner, client: client, ttl: ttl}
}

func courseKey(id string) string { return "course:" + id }

func (r *CachedCourseRepo) Save(ctx context.Context, tx repository.Tx, course *model.Course) error {
	if err := r.inner.Save(ctx, tx, course); err != nil {
		return err
	}
	// Invalidate rather than write-through; the next read repopulates.
	_ = r.client.Del(ctx, courseKey(course.ID))
	return nil
}

func (r *CachedCourseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	if tx != nil {
		return r.inner.FindByID(ctx, tx, id)
	}

	if raw, err := r.client.Get(ctx, courseKey(id)); err == nil {
		var course model.Course
		if err := json.Unmarshal([]byte(raw), &course); err == nil {
			metrics.IncCacheRequest("course", "hit")
			return &course, nil
		}
	} else if !errors.Is(err, Nil) {
		metrics.IncCacheRequest("course", "error")
	}
	metrics.IncCacheRequest("course", "miss")

	course, err := r.inner.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(course); err == nil {
		_ = r.client.Set(ctx, courseKey(id), data, r.ttl)
	}
	return course, nil
}

func (r *CachedCourseRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Course, error) {
	return r.inner.ListAll(ctx, tx)
}

// CachedPlanRepo caches the plan catalog by name. Plans change rarely and are
// read on every subscription settlement.
type CachedPlanRepo struct {
	inner  repository.PlanRepository
	client RedisClient
	ttl    time.Duration
}

var _ repository.PlanRepository = (*CachedPlanRepo)(nil)

func NewCachedPlanRepo(inner repository.PlanRepository, client RedisClient, ttl time.Duration) *CachedPlanRepo {
	return &CachedPlanRepo{inner: inner, client: client, ttl: ttl}
}

func planKey(name string) string { return "plan:" + name }

func (r *CachedPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	if err := r.inner.Save(ctx, tx, plan); err != nil {
		return err
	}
	_ = r.client.Del(ctx, planKey(plan.Name))
	return nil
}

func (r *CachedPlanRepo) FindByName(ctx context.Context, tx repository.Tx, name string) (*model.Plan, error) {
	if tx != nil {
		return r.inner.FindByName(ctx, tx, name)
	}

	if raw, err := r.client.Get(ctx, planKey(name)); err == nil {
		var plan model.Plan
		if err := json.Unmarshal([]byte(raw), &plan); err == nil {
			metrics.IncCacheRequest("plan", "hit")
			return &plan, nil
		}
	} else if !errors.Is(err, Nil) {
		metrics.IncCacheRequest("plan", "error")
	}
	metrics.IncCacheRequest("plan", "miss")

	plan, err := r.inner.FindByName(ctx, nil, name)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(plan); err == nil {
		_ = r.client.Set(ctx, planKey(name), data, r.ttl)
	}
	return plan, nil
}

func (r *CachedPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	return r.inner.ListAll(ctx, tx)
}
