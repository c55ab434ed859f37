package plan

import (
	"context"
	"errors"
	"testing"

	"seaplan/internal/config"
	"seaplan/internal/dataset"
	"seaplan/internal/encode"
	"seaplan/internal/model"
	"seaplan/internal/solve"
)

func testEntities() *dataset.Entities {
	return &dataset.Entities{
		Locations: []model.Location{
			{Name: "Port", Category: "port", X: 0, Y: 0},
			{Name: "P1", Category: "platform", X: 0, Y: 3000},
			{Name: "P2", Category: "platform", X: 0, Y: 6000},
		},
		Items: []model.Item{
			{Name: "cargo", Pickup: 1, Delivery: 2, Weight: 5, Lifts: 1},
		},
		Vessels: []model.Vessel{
			{Name: "V1", Capacity: 100, SpeedKn: 3.24, UnitsPerMin: 1.0, Start: -1, End: -1},
		},
		Depot: 0,
	}
}

func testModel(t *testing.T) *encode.Model {
	t.Helper()
	cfg := config.Default()
	e := testEntities()
	g := dataset.BuildGraph(e, cfg)
	m, err := encode.Encode(e, g, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestReconstructLegs(t *testing.T) {
	m := testModel(t)
	p, d := m.Pairs[0][0], m.Pairs[0][1]
	asg := solve.Assignment{
		Routes: []solve.Route{{
			Vessel: 0,
			Visits: []solve.Visit{
				{Node: m.Depot, Arrival: 0},
				{Node: p, Arrival: 30, Load: 5},
				{Node: d, Arrival: 73, Load: 0},
				{Node: m.Depot, Arrival: 136, Load: 0},
			},
		}},
		Objective: 136,
	}

	routes, err := Reconstruct(m, asg)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	r := routes[0]
	if r.Vessel != "V1" || len(r.Legs) != 3 {
		t.Fatalf("route: %+v", r)
	}

	// leg contiguity
	for i := 0; i+1 < len(r.Legs); i++ {
		if r.Legs[i].ToNode != r.Legs[i+1].FromNode {
			t.Fatalf("legs not contiguous at %d", i)
		}
	}

	if r.Legs[0].Action != "none" || r.Legs[0].Distance != 30 {
		t.Fatalf("leg 0: %+v", r.Legs[0])
	}
	if r.Legs[1].Action != "load" || r.Legs[1].Item != "cargo" || r.Legs[1].Distance != 30 {
		t.Fatalf("leg 1: %+v", r.Legs[1])
	}
	if r.Legs[1].WeightDelta != 5 || r.Legs[1].LiftsDelta != 1 {
		t.Fatalf("leg 1 deltas: %+v", r.Legs[1])
	}
	if r.Legs[2].Action != "unload" || r.Legs[2].WeightDelta != -5 || r.Legs[2].LiftsDelta != -1 {
		t.Fatalf("leg 2: %+v", r.Legs[2])
	}
	if r.Legs[2].FromLocation != "P2" || r.Legs[2].ToLocation != "Port" {
		t.Fatalf("leg 2 locations: %+v", r.Legs[2])
	}

	if r.TotalTime != 136 || r.TotalDistance != 120 {
		t.Fatalf("totals: time=%d dist=%d", r.TotalTime, r.TotalDistance)
	}
}

func TestReconstructEmptyRoute(t *testing.T) {
	m := testModel(t)
	asg := solve.Assignment{
		Routes: []solve.Route{{
			Vessel: 0,
			Visits: []solve.Visit{{Node: m.Depot}, {Node: m.Depot}},
		}},
	}
	routes, err := Reconstruct(m, asg)
	if err != nil {
		t.Fatal(err)
	}
	if len(routes[0].Legs) != 0 || routes[0].TotalTime != 0 {
		t.Fatalf("empty route: %+v", routes[0])
	}
}

func TestReconstructRejectsUnknownNode(t *testing.T) {
	m := testModel(t)
	asg := solve.Assignment{
		Routes: []solve.Route{{
			Vessel: 0,
			Visits: []solve.Visit{{Node: m.Depot}, {Node: 99}, {Node: m.Depot}},
		}},
	}
	_, err := Reconstruct(m, asg)
	var ie *InconsistentAssignmentError
	if !errors.As(err, &ie) {
		t.Fatalf("want InconsistentAssignmentError, got %v", err)
	}
	if ie.Node != 99 {
		t.Fatalf("node: %d", ie.Node)
	}
}

func TestPlannerEndToEnd(t *testing.T) {
	cfg := config.Default()
	planner := NewPlanner(solve.NewALNS(), cfg)

	req := model.PlanRequest{
		Locations: []model.LocationIn{
			{Name: "Port", Category: "port", X: 0, Y: 0},
			{Name: "P1", Category: "platform", X: 0, Y: 3000},
			{Name: "P2", Category: "platform", X: 0, Y: 6000},
		},
		Items: []model.ItemIn{
			{Name: "cargo", Pickup: "p.1", Delivery: "P2", Weight: 5},
		},
		Vessels: []model.VesselIn{
			// one distance unit per minute at 100 m units
			{Name: "V1", Capacity: 100, SpeedKn: 6000.0 / 1852.0},
		},
		Search: &model.SearchIn{TimeBudgetMs: 2000, Seed: 7},
	}

	out, err := planner.Plan(context.Background(), req, Options{})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(out.Dropped) != 0 {
		t.Fatalf("dropped: %+v", out.Dropped)
	}
	legs := out.Routes[0].Legs
	if len(legs) != 3 {
		t.Fatalf("legs: %d", len(legs))
	}
	if legs[0].Distance != 30 || legs[1].Distance != 30 {
		t.Fatalf("distances: %d %d", legs[0].Distance, legs[1].Distance)
	}
	if legs[1].Action != "load" || legs[2].Action != "unload" {
		t.Fatalf("actions: %s %s", legs[1].Action, legs[2].Action)
	}
	prev := int64(-1)
	for _, l := range legs {
		if l.FromTime < prev || l.ToTime < l.FromTime {
			t.Fatalf("arrivals regressed: %+v", legs)
		}
		prev = l.ToTime
	}
	if out.TotalDistance != 120 {
		t.Fatalf("total distance: %d", out.TotalDistance)
	}
}

func TestPlannerReportsDroppedItems(t *testing.T) {
	cfg := config.Default()
	planner := NewPlanner(solve.NewALNS(), cfg)
	closed := int64(0)
	end := int64(1440)

	req := model.PlanRequest{
		Locations: []model.LocationIn{
			{Name: "Port", Category: "port"},
			{Name: "P1", Category: "platform", Y: 3000, Closures: []model.ClosureIn{{Start: &closed, End: &end}}},
			{Name: "P2", Category: "platform", Y: 6000},
		},
		Items: []model.ItemIn{
			{Name: "cargo", Pickup: "P1", Delivery: "P2", Weight: 5},
		},
		Vessels: []model.VesselIn{
			{Name: "V1", Capacity: 100, SpeedKn: 10},
		},
		Search: &model.SearchIn{TimeBudgetMs: 1000, Seed: 7},
	}

	out, err := planner.Plan(context.Background(), req, Options{})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(out.Dropped) != 1 {
		t.Fatalf("dropped: %+v", out.Dropped)
	}
	dr := out.Dropped[0]
	if dr.Item != "cargo" || dr.Pickup != "P1" || dr.Delivery != "P2" {
		t.Fatalf("dropped record: %+v", dr)
	}
}
