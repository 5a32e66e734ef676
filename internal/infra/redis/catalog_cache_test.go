//go:build !integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"course-commerce/internal/domain"
	"course-commerce/internal/domain/model"
	"course-commerce/internal/domain/ports/repository"
	red "course-commerce/internal/infra/redis"
)

// countingCourseRepo tracks how often the inner repository is hit.
type countingCourseRepo struct {
	byID  map[string]*model.Course
	finds int
}

func newCountingCourseRepo() *countingCourseRepo {
	return &countingCourseRepo{byID: map[string]*model.Course{}}
}

func (r *countingCourseRepo) Save(_ context.Context, _ repository.Tx, c *model.Course) error {
	r.byID[c.ID] = c
	return nil
}

func (r *countingCourseRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.Course, error) {
	r.finds++
	if c, ok := r.byID[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (r *countingCourseRepo) ListAll(_ context.Context, _ repository.Tx) ([]*model.Course, error) {
	out := make([]*model.Course, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	return out, nil
}

func TestCachedCourseRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("second read is served from cache", func(t *testing.T) {
		inner := newCountingCourseRepo()
		cli := newFakeRedis()
		repo := red.NewCachedCourseRepo(inner, cli, time.Minute)
		if err := repo.Save(ctx, nil, &model.Course{ID: "course-1", Title: "Algebra"}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		for i := 0; i < 2; i++ {
			c, err := repo.FindByID(ctx, nil, "course-1")
			if err != nil {
				t.Fatalf("FindByID() #%d error = %v", i+1, err)
			}
			if c.Title != "Algebra" {
				t.Errorf("title = %q", c.Title)
			}
		}
		if inner.finds != 1 {
			t.Errorf("inner lookups = %d, want 1 (second read cached)", inner.finds)
		}
	})

	t.Run("save invalidates the cached entry", func(t *testing.T) {
		inner := newCountingCourseRepo()
		cli := newFakeRedis()
		repo := red.NewCachedCourseRepo(inner, cli, time.Minute)
		if err := repo.Save(ctx, nil, &model.Course{ID: "course-1", Title: "Algebra"}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if _, err := repo.FindByID(ctx, nil, "course-1"); err != nil {
			t.Fatalf("warm read error = %v", err)
		}

		if err := repo.Save(ctx, nil, &model.Course{ID: "course-1", Title: "Algebra II"}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		c, err := repo.FindByID(ctx, nil, "course-1")
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if c.Title != "Algebra II" {
			t.Errorf("title = %q, stale cache served after save", c.Title)
		}
	})

	t.Run("transactional reads bypass the cache", func(t *testing.T) {
		inner := newCountingCourseRepo()
		cli := newFakeRedis()
		repo := red.NewCachedCourseRepo(inner, cli, time.Minute)
		if err := repo.Save(ctx, nil, &model.Course{ID: "course-1", Title: "Algebra"}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		if _, err := repo.FindByID(ctx, struct{}{}, "course-1"); err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if len(cli.strings) != 0 {
			t.Errorf("tx read populated the cache: %v", cli.strings)
		}
	})

	t.Run("miss on unknown id passes the error through", func(t *testing.T) {
		repo := red.NewCachedCourseRepo(newCountingCourseRepo(), newFakeRedis(), time.Minute)
		if _, err := repo.FindByID(ctx, nil, "ghost"); err != domain.ErrNotFound {
			t.Fatalf("FindByID() error = %v, want ErrNotFound", err)
		}
	})
}

func TestCachedPlanRepo(t *testing.T) {
	ctx := context.Background()
	cli := newFakeRedis()
	inner := newMemPlanStore()
	repo := red.NewCachedPlanRepo(inner, cli, time.Minute)

	if err := repo.Save(ctx, nil, &model.Plan{Name: "school", PriceMinor: 2_500_000, Currency: "NGN", PeriodDays: 30}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		p, err := repo.FindByName(ctx, nil, "school")
		if err != nil {
			t.Fatalf("FindByName() #%d error = %v", i+1, err)
		}
		if p.PriceMinor != 2_500_000 {
			t.Errorf("price = %d", p.PriceMinor)
		}
	}
	if inner.finds != 1 {
		t.Errorf("inner lookups = %d, want 1", inner.finds)
	}
}

type memPlanStore struct {
	byName map[string]*model.Plan
	finds  int
}

func newMemPlanStore() *memPlanStore { return &memPlanStore{byName: map[string]*model.Plan{}} }

func (r *memPlanStore) Save(_ context.Context, _ repository.Tx, p *model.Plan) error {
	r.byName[p.Name] = p
	return nil
}

func (r *memPlanStore) FindByName(_ context.Context, _ repository.Tx, name string) (*model.Plan, error) {
	r.finds++
	if p, ok := r.byName[name]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memPlanStore) ListAll(_ context.Context, _ repository.Tx) ([]*model.Plan, error) {
	out := make([]*model.Plan, 0, len(r.byName))
	for _, p := range r.byName {
		out = append(out, p)
	}
	return out, nil
}
