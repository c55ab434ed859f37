package store

import (
	"context"
	"errors"

	"seaplan/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
	// Plans
	SavePlan(ctx context.Context, p *model.Plan) (string, error)
	GetPlan(ctx context.Context, id string) (model.Plan, error)
	ListPlans(ctx context.Context, cursor string, limit int) ([]model.PlanSummary, string, error)

	// Planner config overrides, persisted as loose key/value JSON
	GetPlannerConfig(ctx context.Context) (map[string]any, error)
	SavePlannerConfig(ctx context.Context, cfg map[string]any) error
}

var ErrNotFound = errors.New("not found")
