package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"course-commerce/internal/config"
	"course-commerce/internal/domain/model"
	pg "course-commerce/internal/infra/db/postgres"
)

func main() {
	// ---- Config ----
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect Postgres
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	planRepo := pg.NewPlanRepo(pool)
	courseRepo := pg.NewCourseRepo(pool)

	// If plans already exist, do nothing
	plans, err := planRepo.ListAll(ctx, nil)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
		for _, p := range plans {
			fmt.Printf("  - %s (days=%d, seats=%d, price=%d %s)\n", p.Name, p.PeriodDays, p.Seats, p.PriceMinor, p.Currency)
		}
		return
	}

	// Seed a few sample plans for testing the payment flow
	seedPlans := []*model.Plan{
		{Name: "starter", PriceMinor: 500_000, Currency: "NGN", PeriodDays: 30, Seats: 10},
		{Name: "school", PriceMinor: 2_000_000, Currency: "NGN", PeriodDays: 30, Seats: 100},
		{Name: "campus", PriceMinor: 15_000_000, Currency: "NGN", PeriodDays: 365, Seats: 1000},
	}
	for _, p := range seedPlans {
		p.CreatedAt = time.Now().UTC()
		if err := planRepo.Save(ctx, nil, p); err != nil {
			log.Fatalf("seed plan %q: %v", p.Name, err)
		}
		fmt.Printf("seeded plan: %s (days=%d, seats=%d, price=%d %s)\n", p.Name, p.PeriodDays, p.Seats, p.PriceMinor, p.Currency)
	}

	// A sample paid course so course purchases can be exercised end to end
	course := &model.Course{
		ID:         uuid.NewString(),
		Title:      "Introduction to Algebra",
		Topic:      "algebra",
		Level:      "beginner",
		PriceMinor: 750_000,
		Currency:   "NGN",
		CreatedAt:  time.Now().UTC(),
	}
	if err := courseRepo.Save(ctx, nil, course); err != nil {
		log.Fatalf("seed course: %v", err)
	}
	fmt.Printf("seeded course: %s (id=%s, price=%d %s)\n", course.Title, course.ID, course.PriceMinor, course.Currency)

	fmt.Println("Seeding complete.")
}
