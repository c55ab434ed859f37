package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"seaplan/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu     sync.Mutex
	plans  map[string]model.Plan
	order  []string // ids in insertion order
	cfg    map[string]any
}

func NewMemory() *Memory {
	return &Memory{
		plans: map[string]model.Plan{},
		cfg:   map[string]any{},
	}
}

func (m *Memory) SavePlan(ctx context.Context, p *model.Plan) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt == "" {
		p.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	m.plans[p.ID] = *p
	m.order = append(m.order, p.ID)
	return p.ID, nil
}

func (m *Memory) GetPlan(ctx context.Context, id string) (model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return model.Plan{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) ListPlans(ctx context.Context, cursor string, limit int) ([]model.PlanSummary, string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := append([]string(nil), m.order...)
	sort.Strings(ids)
	start := 0
	if cursor != "" {
		start = sort.SearchStrings(ids, cursor)
		if start < len(ids) && ids[start] == cursor {
			start++
		}
	}
	out := []model.PlanSummary{}
	next := ""
	for i := start; i < len(ids) && len(out) < limit; i++ {
		p := m.plans[ids[i]]
		out = append(out, summarize(p))
		next = p.ID
	}
	if start+len(out) >= len(ids) {
		next = ""
	}
	return out, next, nil
}

func (m *Memory) GetPlannerConfig(ctx context.Context) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]any, len(m.cfg))
	for k, v := range m.cfg {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) SavePlannerConfig(ctx context.Context, cfg map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = map[string]any{}
	for k, v := range cfg {
		m.cfg[k] = v
	}
	return nil
}

func summarize(p model.Plan) model.PlanSummary {
	return model.PlanSummary{
		ID:        p.ID,
		CreatedAt: p.CreatedAt,
		Objective: p.Objective,
		Vessels:   len(p.Routes),
		Dropped:   len(p.Dropped),
	}
}
