package store

import (
	"context"
	"os"
	"testing"

	"seaplan/internal/model"
)

func TestPostgresRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	p, err := NewPostgres(dsn)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	ctx := context.Background()

	id, err := p.SavePlan(ctx, &model.Plan{Objective: 42})
	if err != nil {
		t.Fatalf("SavePlan: %v", err)
	}
	got, err := p.GetPlan(ctx, id)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if got.Objective != 42 {
		t.Fatalf("objective: %d", got.Objective)
	}

	items, _, err := p.ListPlans(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("expected at least one plan")
	}

	if err := p.SavePlannerConfig(ctx, map[string]any{"solveTimeLimitS": 5}); err != nil {
		t.Fatalf("SavePlannerConfig: %v", err)
	}
	cfg, err := p.GetPlannerConfig(ctx)
	if err != nil || cfg["solveTimeLimitS"] == nil {
		t.Fatalf("GetPlannerConfig: %v %v", cfg, err)
	}
}
