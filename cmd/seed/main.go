package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"construction-course-checkout/internal/config"
	"construction-course-checkout/internal/domain/model"
	pg "construction-course-checkout/internal/infra/db/postgres"
)

// Seeds a handful of courses, plans and coupons for exercising the
// checkout flow against a fresh database.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	catalogRepo := pg.NewCatalogRepo(pool)
	couponRepo := pg.NewCouponRepo(pool)

	courses := []struct {
		ID    string
		Title string
		Price int64
	}{
		{"course-foundations", "Concrete Foundations in Practice", 45_000},
		{"course-estimating", "Construction Cost Estimating", 69_000},
		{"course-site-safety", "Site Safety Management", 29_000},
	}
	for _, c := range courses {
		course, err := model.NewCourse(c.ID, c.Title, c.Price, "BRL")
		if err != nil {
			log.Fatalf("course %q: %v", c.ID, err)
		}
		if err := catalogRepo.SaveCourse(ctx, nil, course); err != nil {
			log.Fatalf("save course %q: %v", c.ID, err)
		}
		fmt.Printf("seeded course: %s (%d cents)\n", course.Title, course.PriceCents)
	}

	plans := []struct {
		ID     string
		Name   string
		Price  int64
		Months int
	}{
		{"plan-monthly", "All-Access Monthly", 39_000, 1},
		{"plan-annual", "All-Access Annual", 390_000, 12},
	}
	for _, p := range plans {
		plan, err := model.NewSubscriptionPlan(p.ID, p.Name, p.Price, "BRL", p.Months)
		if err != nil {
			log.Fatalf("plan %q: %v", p.ID, err)
		}
		if err := catalogRepo.SavePlan(ctx, nil, plan); err != nil {
			log.Fatalf("save plan %q: %v", p.ID, err)
		}
		fmt.Printf("seeded plan: %s (%d cents)\n", plan.Name, plan.PriceCents)
	}

	expiry := time.Now().AddDate(0, 3, 0)
	coupons := []*model.Coupon{
		{Code: "LAUNCH20", DiscountPercent: 20, Active: true, CreatedAt: time.Now()},
		{Code: "PARTNER100", DiscountPercent: 100, MaxRedemptions: 50, Active: true, CreatedAt: time.Now()},
		{Code: "SPRING10", DiscountPercent: 10, ExpiresAt: &expiry, Active: true, CreatedAt: time.Now()},
	}
	for _, c := range coupons {
		if err := couponRepo.Save(ctx, nil, c); err != nil {
			log.Fatalf("save coupon %q: %v", c.Code, err)
		}
		fmt.Printf("seeded coupon: %s (%d%%)\n", c.Code, c.DiscountPercent)
	}

	fmt.Println("Seeding complete.")
}
