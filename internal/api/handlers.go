package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"seaplan/internal/buildinfo"
	"seaplan/internal/config"
	"seaplan/internal/dataset"
	"seaplan/internal/encode"
	"seaplan/internal/metrics"
	"seaplan/internal/model"
	"seaplan/internal/plan"
	"seaplan/internal/solve"
	"seaplan/internal/store"
)

// PlansHandler handles /v1/plans: POST solves and stores a plan, GET lists
// stored plans.
func (s *Server) PlansHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createPlan(w, r)
	case http.MethodGet:
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			limit, _ = strconv.Atoi(v)
		}
		items, next, err := s.Store.ListPlans(r.Context(), r.URL.Query().Get("cursor"), limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) createPlan(w http.ResponseWriter, r *http.Request) {
	var req model.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validatePlanRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid request", err.Error(), r.URL.Path)
		return
	}

	cfg := s.Cfg
	if overrides, err := s.Store.GetPlannerConfig(r.Context()); err == nil && len(overrides) > 0 {
		applyOverrides(&cfg, overrides)
	}
	planner := plan.NewPlanner(s.Planner.Engine, cfg)

	// Plan ID is assigned up front so progress events are addressable
	// while the solve is still running.
	id := uuid.NewString()
	opts := plan.Options{
		Progress: func(e solve.Event) {
			s.Broker.Publish(id, SSEEvent{Type: "solve.progress", Data: map[string]any{
				"planId":    id,
				"iteration": e.Iteration,
				"bestCost":  e.BestCost,
				"objective": e.Objective,
				"dropped":   e.Dropped,
			}})
		},
		OnMetrics: func(m solve.Metrics) {
			solve.RecordMetrics(id, m)
			metrics.SolveIterations.Observe(float64(m.Iterations))
		},
	}

	start := time.Now()
	out, err := planner.Plan(r.Context(), req, opts)
	if err != nil {
		metrics.SolveDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		s.writePlanError(w, r, err)
		return
	}
	metrics.SolveDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	metrics.DroppedItems.Add(float64(len(out.Dropped)))
	metrics.LastObjective.Set(float64(out.Objective))

	out.ID = id
	if _, err := s.Store.SavePlan(r.Context(), out); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Save failed", err.Error(), r.URL.Path)
		return
	}
	s.Broker.Publish(id, SSEEvent{Type: "plan.completed", Data: map[string]any{
		"planId":    id,
		"objective": out.Objective,
		"dropped":   len(out.Dropped),
	}})
	writeJSON(w, http.StatusCreated, out)
}

// writePlanError maps the pipeline's typed errors onto problem responses.
func (s *Server) writePlanError(w http.ResponseWriter, r *http.Request, err error) {
	var unresolved *dataset.UnresolvedLocationError
	var weight *dataset.InvalidWeightError
	var construction *encode.ModelConstructionError
	var inconsistent *plan.InconsistentAssignmentError
	switch {
	case errors.As(err, &unresolved), errors.As(err, &weight):
		writeProblem(w, http.StatusBadRequest, "Invalid entities", err.Error(), r.URL.Path)
	case errors.As(err, &construction):
		writeProblem(w, http.StatusUnprocessableEntity, "Infeasible model", err.Error(), r.URL.Path)
	case errors.Is(err, solve.ErrNoFeasibleSolution):
		writeProblem(w, http.StatusConflict, "No feasible solution", err.Error(), r.URL.Path)
	case errors.As(err, &inconsistent):
		writeProblem(w, http.StatusInternalServerError, "Solver contract violation", err.Error(), r.URL.Path)
	default:
		writeProblem(w, http.StatusInternalServerError, "Plan failed", err.Error(), r.URL.Path)
	}
}

// PlanByIDHandler handles /v1/plans/{id} and /v1/plans/{id}/events/stream.
func (s *Server) PlanByIDHandler(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/v1/plans/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/plans/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}

	if len(parts) >= 3 && parts[1] == "events" && parts[2] == "stream" {
		s.streamPlanEvents(w, r, id)
		return
	}

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	p, err := s.Store.GetPlan(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Plan not found", "", r.URL.Path)
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Get failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) streamPlanEvents(w http.ResponseWriter, r *http.Request, id string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.Broker.Subscribe(id)
	defer s.Broker.Unsubscribe(id, ch)

	heartbeat := func() {
		fmt.Fprintf(w, "event: heartbeat\n")
		fmt.Fprintf(w, "data: {\"planId\":\"%s\",\"ts\":\"%s\"}\n\n", id, time.Now().Format(time.RFC3339))
		flusher.Flush()
	}
	heartbeat()

	notify := r.Context().Done()
	for {
		select {
		case <-notify:
			return
		case evt := <-ch:
			b, _ := json.Marshal(evt.Data)
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", string(b))
			flusher.Flush()
		case <-time.After(15 * time.Second):
			heartbeat()
		}
	}
}

// PlannerConfigHandler handles /v1/planner/config: GET returns the stored
// overrides, PUT replaces them. Overrides apply on top of the process
// config at solve time.
func (s *Server) PlannerConfigHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cfg, err := s.Store.GetPlannerConfig(r.Context())
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Get failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	case http.MethodPut:
		var in map[string]any
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		for k := range in {
			if _, ok := overrideKeys[k]; !ok {
				writeProblem(w, http.StatusBadRequest, "Invalid config", "unknown key: "+k, r.URL.Path)
				return
			}
		}
		if err := s.Store.SavePlannerConfig(r.Context(), in); err != nil {
			writeProblem(w, http.StatusInternalServerError, "Save failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, in)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

var overrideKeys = map[string]struct{}{
	"solveTimeLimitS": {},
	"solutionLimit":   {},
	"dropPenalty":     {},
	"relaxEndArrival": {},
	"logSearch":       {},
	"maxWaitingTime":  {},
	"mooringTime":     {},
	"mooringTimePort": {},
}

func applyOverrides(cfg *config.Config, in map[string]any) {
	if v, ok := asInt(in["solveTimeLimitS"]); ok && v > 0 {
		cfg.SolveTimeLimitS = int(v)
	}
	if v, ok := asInt(in["solutionLimit"]); ok && v > 0 {
		cfg.SolutionLimit = int(v)
	}
	if v, ok := asInt(in["dropPenalty"]); ok && v > 0 {
		cfg.DropPenalty = v
	}
	if v, ok := in["relaxEndArrival"].(bool); ok {
		cfg.RelaxEndArrival = v
	}
	if v, ok := in["logSearch"].(bool); ok {
		cfg.LogSearch = v
	}
	if v, ok := asInt(in["maxWaitingTime"]); ok && v > 0 {
		cfg.MaxWaitingTime = v
	}
	if v, ok := asInt(in["mooringTime"]); ok && v >= 0 {
		cfg.MooringTime = v
	}
	if v, ok := asInt(in["mooringTimePort"]); ok && v >= 0 {
		cfg.MooringTimePort = v
	}
}

func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		return int64(x), true
	case int:
		return int64(x), true
	case int64:
		return x, true
	}
	return 0, false
}

// PlanMetricsHandler handles /v1/admin/plan-metrics?planId=... and returns
// the search metrics recorded for one solve.
func (s *Server) PlanMetricsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get("planId")
	if id == "" {
		writeProblem(w, http.StatusBadRequest, "Missing planId", "", r.URL.Path)
		return
	}
	m, ok := solve.GetMetrics(id)
	if !ok {
		writeProblem(w, http.StatusNotFound, "No metrics for plan", "", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": buildinfo.Info()})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.Store.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Store unavailable", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
