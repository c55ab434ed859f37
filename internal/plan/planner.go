package plan

import (
	"context"
	"time"

	"seaplan/internal/config"
	"seaplan/internal/dataset"
	"seaplan/internal/encode"
	"seaplan/internal/model"
	"seaplan/internal/solve"
)

// Planner owns the full pipeline. It is stateless between calls; each Plan
// invocation normalizes, encodes, solves once, and reconstructs.
type Planner struct {
	Engine solve.Engine
	Cfg    config.Config
}

func NewPlanner(engine solve.Engine, cfg config.Config) *Planner {
	return &Planner{Engine: engine, Cfg: cfg}
}

// Options carries per-run observers. Either field may be nil.
type Options struct {
	Progress  func(solve.Event)
	OnMetrics func(solve.Metrics)
}

// Plan solves one routing problem. Validation and model-construction errors
// come back typed from the respective stages; ErrNoFeasibleSolution passes
// through unchanged. ID and CreatedAt are left for the caller to assign on
// persistence.
func (p *Planner) Plan(ctx context.Context, req model.PlanRequest, opts Options) (*model.Plan, error) {
	ents, err := dataset.Normalize(req, p.Cfg)
	if err != nil {
		return nil, err
	}
	g := dataset.BuildGraph(ents, p.Cfg)
	m, err := encode.Encode(ents, g, p.Cfg)
	if err != nil {
		return nil, err
	}

	asg, err := p.Engine.Solve(ctx, m, p.searchParams(req.Search, opts))
	if err != nil {
		return nil, err
	}

	routes, err := Reconstruct(m, asg)
	if err != nil {
		return nil, err
	}

	out := &model.Plan{Objective: asg.Objective, Routes: routes}
	for _, r := range routes {
		out.TotalTime += r.TotalTime
		out.TotalDistance += r.TotalDistance
	}
	for _, nd := range asg.Dropped {
		node := m.Graph.Nodes[nd]
		if node.Role != model.RolePickup {
			continue
		}
		it := ents.Items[node.Item]
		out.Dropped = append(out.Dropped, model.DroppedItem{
			Item:     it.Name,
			Pickup:   ents.Locations[it.Pickup].Name,
			Delivery: ents.Locations[it.Delivery].Name,
		})
	}
	return out, nil
}

// searchParams maps config defaults plus per-request overrides onto the
// engine's budget knobs.
func (p *Planner) searchParams(in *model.SearchIn, opts Options) solve.Params {
	params := solve.Params{
		TimeBudget:    time.Duration(p.Cfg.SolveTimeLimitS) * time.Second,
		SolutionLimit: p.Cfg.SolutionLimit,
		LogSearch:     p.Cfg.LogSearch,
		Progress:      opts.Progress,
		OnMetrics:     opts.OnMetrics,
	}
	if in == nil {
		return params
	}
	if in.TimeBudgetMs > 0 {
		params.TimeBudget = time.Duration(in.TimeBudgetMs) * time.Millisecond
	}
	if in.SolutionLimit > 0 {
		params.SolutionLimit = in.SolutionLimit
	}
	if in.Seed != 0 {
		params.Seed = in.Seed
	}
	if in.LogSearch {
		params.LogSearch = true
	}
	return params
}
