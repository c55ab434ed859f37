package encode

import (
	"errors"
	"testing"

	"seaplan/internal/config"
	"seaplan/internal/dataset"
	"seaplan/internal/model"
)

func i64(v int64) *int64 { return &v }

func buildModel(t *testing.T, mutate func(*model.PlanRequest), cfg config.Config) (*Model, error) {
	t.Helper()
	req := model.PlanRequest{
		Locations: []model.LocationIn{
			{Name: "Port", Category: "port", X: 0, Y: 0},
			{Name: "P1", Category: "platform", X: 0, Y: 3000},
			{Name: "P2", Category: "platform", X: 0, Y: 6000},
		},
		Items: []model.ItemIn{
			{Name: "cargo", Pickup: "P1", Delivery: "P2", Weight: 100},
		},
		Vessels: []model.VesselIn{
			{Name: "V1", Capacity: 500, SpeedKn: 10},
		},
	}
	if mutate != nil {
		mutate(&req)
	}
	e, err := dataset.Normalize(req, cfg)
	if err != nil {
		t.Fatal(err)
	}
	g := dataset.BuildGraph(e, cfg)
	return Encode(e, g, cfg)
}

func TestEncodeBasics(t *testing.T) {
	cfg := config.Default()
	m, err := buildModel(t, nil, cfg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(m.Time) != 1 || len(m.Dist) != len(m.Graph.Nodes) {
		t.Fatalf("matrix shapes: %d vessels, %d nodes", len(m.Time), len(m.Dist))
	}
	p, d := m.Pairs[0][0], m.Pairs[0][1]
	if m.Demands[p] != 100 || m.Demands[d] != -100 {
		t.Fatalf("demands: %d %d", m.Demands[p], m.Demands[d])
	}
	if m.Capacities[0] != 500 {
		t.Fatalf("capacity: %d", m.Capacities[0])
	}
}

func TestOverweightItemFailsBeforeSolve(t *testing.T) {
	_, err := buildModel(t, func(r *model.PlanRequest) {
		r.Items[0].Weight = 900
	}, config.Default())
	var ce *ModelConstructionError
	if !errors.As(err, &ce) {
		t.Fatalf("want ModelConstructionError, got %v", err)
	}
}

func TestNoVesselsFails(t *testing.T) {
	_, err := buildModel(t, func(r *model.PlanRequest) {
		r.Vessels = nil
	}, config.Default())
	var ce *ModelConstructionError
	if !errors.As(err, &ce) {
		t.Fatalf("want ModelConstructionError, got %v", err)
	}
}

func TestIntegralityGuard(t *testing.T) {
	cfg := config.Default()
	m, err := buildModel(t, nil, cfg)
	if err != nil {
		t.Fatal(err)
	}
	// corrupt one entry and rebuild from the same matrices
	m.Dist[0][1] = -5
	_, err = Build(m.Entities, m.Graph, m.Dist, m.Time, cfg)
	var ce *ModelConstructionError
	if !errors.As(err, &ce) {
		t.Fatalf("want ModelConstructionError, got %v", err)
	}
}

func TestNodeWindows(t *testing.T) {
	cfg := config.Default()
	m, err := buildModel(t, func(r *model.PlanRequest) {
		r.Locations[1].Closures = []model.ClosureIn{{Start: i64(100), End: i64(200)}}
	}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	// depot window is open-ended
	if m.Windows[m.Depot].End <= cfg.WindowEnd() {
		t.Fatalf("depot window end: %d", m.Windows[m.Depot].End)
	}
	p := m.Pairs[0][0]
	w := m.Windows[p]
	if len(w.Blocked) != 1 {
		t.Fatalf("blocked spans: %d", len(w.Blocked))
	}
	// the closure is shifted earlier by the pickup's service time (1 lift, 3 min)
	if w.Blocked[0].From != 97 || w.Blocked[0].To != 200 {
		t.Fatalf("blocked span: [%d,%d]", w.Blocked[0].From, w.Blocked[0].To)
	}
	if w.Allows(150) {
		t.Fatal("arrival inside closure must be rejected")
	}
	if got := w.NextAllowed(150); got != 201 {
		t.Fatalf("NextAllowed(150): got %d", got)
	}
	if !w.Allows(96) || !w.Allows(201) {
		t.Fatal("edges of the closure must be allowed")
	}
}

func TestNextAllowedBeyondEnd(t *testing.T) {
	w := Window{Start: 0, End: 100, Blocked: []Span{{From: 50, To: 100}}}
	if got := w.NextAllowed(60); got != -1 {
		t.Fatalf("got %d, want -1", got)
	}
}

func TestOccupancyMembership(t *testing.T) {
	cfg := config.Default()
	m, err := buildModel(t, nil, cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, occ := range m.Occ {
		for _, nd := range occ.Nodes {
			if nd == m.Depot {
				t.Fatal("depot node must not count against occupancy")
			}
			if m.Graph.IsEnd(nd) {
				t.Fatal("end nodes must not count against occupancy")
			}
		}
		cat := m.Entities.Locations[occ.Location].Category
		if cat == "port" && occ.Capacity != cfg.PortCapacity {
			t.Fatalf("port capacity: %d", occ.Capacity)
		}
		if cat == "platform" && occ.Capacity != cfg.PlatformCapacity {
			t.Fatalf("platform capacity: %d", occ.Capacity)
		}
	}
}
