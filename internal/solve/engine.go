// Package solve hosts the solving engine behind a capability interface:
// given an encoded model and a search budget, return a per-vessel node visit
// assignment or report infeasibility. Domain logic stays outside; any engine
// honoring the contract can be substituted.
package solve

import (
	"context"
	"errors"
	"sync"
	"time"

	"seaplan/internal/encode"
)

// ErrNoFeasibleSolution is returned only when even the drop-penalty relaxed
// model cannot be scheduled within budget.
var ErrNoFeasibleSolution = errors.New("solve: no feasible solution within budget")

// Visit is one node visit: where, when service begins, and the vessel's
// cumulative load on arrival.
type Visit struct {
	Node    int
	Arrival int64
	Load    int64
}

// Route is a vessel's ordered visit list, including its start and end nodes.
type Route struct {
	Vessel int
	Visits []Visit
}

// Assignment is a solved (possibly partial) plan. Dropped lists the node
// indices excluded under the drop-penalty relaxation.
type Assignment struct {
	Routes    []Route
	Dropped   []int
	Objective int64 // sum of end-of-route times across vessels
}

// Event reports search progress to observers.
type Event struct {
	Iteration int     `json:"iteration"`
	BestCost  float64 `json:"bestCost"`
	Objective int64   `json:"objective"`
	Dropped   int     `json:"dropped"`
}

// Params are the search-budget knobs the caller controls. The engine's
// internals are opaque beyond these.
type Params struct {
	TimeBudget     time.Duration
	SolutionLimit  int
	IterationLimit int
	Seed           int64
	LogSearch      bool
	Progress       func(Event)
	OnMetrics      func(Metrics)
}

// Engine is the solving capability consumed by the planner.
type Engine interface {
	Solve(ctx context.Context, m *encode.Model, p Params) (Assignment, error)
}

// Metrics summarizes one search run.
type Metrics struct {
	Iterations     int        `json:"iterations"`
	Solutions      int        `json:"solutions"`
	Improvements   int        `json:"improvements"`
	AcceptedWorse  int        `json:"acceptedWorse"`
	BestCost       float64    `json:"bestCost"`
	RemovalSelects [2]int     `json:"removalSelects"` // random, related
	InsertSelects  [2]int     `json:"insertSelects"`  // greedy, regret2
	RemovalWeights [2]float64 `json:"removalWeights"`
	InsertWeights  [2]float64 `json:"insertWeights"`
}

var (
	metricsMu sync.Mutex
	metricsBy = map[string]Metrics{}
)

// RecordMetrics stores the search metrics for a plan.
func RecordMetrics(planID string, m Metrics) {
	metricsMu.Lock()
	metricsBy[planID] = m
	metricsMu.Unlock()
}

// GetMetrics returns the recorded metrics for a plan, if any.
func GetMetrics(planID string) (Metrics, bool) {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	m, ok := metricsBy[planID]
	return m, ok
}
