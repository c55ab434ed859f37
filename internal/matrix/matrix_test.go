package matrix

import (
	"reflect"
	"testing"

	"seaplan/internal/config"
	"seaplan/internal/dataset"
	"seaplan/internal/model"
)

func scenario(t *testing.T) (*dataset.Entities, *dataset.Graph, config.Config) {
	t.Helper()
	cfg := config.Default()
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
	e, err := dataset.Normalize(req, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return e, dataset.BuildGraph(e, cfg), cfg
}

func TestLocationDistancesSymmetric(t *testing.T) {
	e, _, cfg := scenario(t)
	d := LocationDistances(e.Locations, cfg.DistanceUnitM)
	for i := range d {
		if d[i][i] != 0 {
			t.Fatalf("d[%d][%d] = %d, want 0", i, i, d[i][i])
		}
		for j := range d[i] {
			if d[i][j] != d[j][i] {
				t.Fatalf("asymmetry at (%d,%d): %d vs %d", i, j, d[i][j], d[j][i])
			}
		}
	}
	// 3000 m at 100 m units
	if d[0][1] != 30 || d[1][2] != 30 || d[0][2] != 60 {
		t.Fatalf("distances: %d %d %d", d[0][1], d[1][2], d[0][2])
	}
}

func TestLocationDistancesRoundNearest(t *testing.T) {
	locs := []model.Location{
		{Name: "a"},
		{Name: "b", Y: 149},
		{Name: "c", Y: 151},
	}
	d := LocationDistances(locs, 100)
	if d[0][1] != 1 {
		t.Fatalf("149 m: got %d, want 1", d[0][1])
	}
	if d[0][2] != 2 {
		t.Fatalf("151 m: got %d, want 2", d[0][2])
	}
}

func TestNodeDistancesSharedLocation(t *testing.T) {
	e, g, cfg := scenario(t)
	locDist := LocationDistances(e.Locations, cfg.DistanceUnitM)
	nd := NodeDistances(g, locDist)
	// the depot node and vessel endpoints share the Port location
	if nd[g.Depot][g.Starts[0]] != 0 {
		t.Fatalf("same-location nodes: got %d", nd[g.Depot][g.Starts[0]])
	}
	p, d := g.Pairs[0][0], g.Pairs[0][1]
	if nd[p][d] != 30 {
		t.Fatalf("pickup-delivery: got %d", nd[p][d])
	}
}

func TestTimeMatrixServiceAndMooring(t *testing.T) {
	e, g, cfg := scenario(t)
	locDist := LocationDistances(e.Locations, cfg.DistanceUnitM)
	nd := NodeDistances(g, locDist)
	tm := TimeMatrix(g, e, nd, e.Vessels[0], cfg)

	p, d := g.Pairs[0][0], g.Pairs[0][1]
	upm := e.Vessels[0].UnitsPerMin
	travelPD := int64(float64(nd[p][d])/upm + 0.5)

	// depot -> pickup: no origin service, no mooring on depot transitions
	if tm[g.Depot][p] != int64(float64(nd[g.Depot][p])/upm+0.5) {
		t.Fatalf("depot->pickup: got %d", tm[g.Depot][p])
	}
	// pickup -> delivery: travel + load service (1 lift * 3) + platform mooring
	want := travelPD + 3 + cfg.MooringTime
	if tm[p][d] != want {
		t.Fatalf("pickup->delivery: got %d, want %d", tm[p][d], want)
	}
	// delivery -> depot: mooring exempt, unload service charged at origin
	if tm[d][g.Depot] != int64(float64(nd[d][g.Depot])/upm+0.5)+3 {
		t.Fatalf("delivery->depot: got %d", tm[d][g.Depot])
	}
	// diagonal stays zero
	if tm[p][p] != 0 {
		t.Fatalf("diagonal: got %d", tm[p][p])
	}
}

func TestTimeMatrixPortMooring(t *testing.T) {
	cfg := config.Default()
	req := model.PlanRequest{
		Locations: []model.LocationIn{
			{Name: "Port", Category: "port", X: 0, Y: 0},
			{Name: "Quay", Category: "port", X: 0, Y: 5000},
			{Name: "Rig", Category: "platform", X: 0, Y: 10000},
		},
		Items: []model.ItemIn{
			{Name: "mud", Pickup: "Rig", Delivery: "Quay", Weight: 100},
		},
		Vessels: []model.VesselIn{{Name: "V1", Capacity: 500, SpeedKn: 10}},
	}
	e, err := dataset.Normalize(req, cfg)
	if err != nil {
		t.Fatal(err)
	}
	g := dataset.BuildGraph(e, cfg)
	nd := NodeDistances(g, LocationDistances(e.Locations, cfg.DistanceUnitM))
	tm := TimeMatrix(g, e, nd, e.Vessels[0], cfg)

	p, d := g.Pairs[0][0], g.Pairs[0][1]
	// arrival at a port location away from the depot pays the port rate
	upm := e.Vessels[0].UnitsPerMin
	want := int64(float64(nd[p][d])/upm+0.5) + 3 + cfg.MooringTimePort
	if tm[p][d] != want {
		t.Fatalf("platform->port: got %d, want %d", tm[p][d], want)
	}
}

func TestMatricesDeterministic(t *testing.T) {
	e, g, cfg := scenario(t)
	a := LocationDistances(e.Locations, cfg.DistanceUnitM)
	b := LocationDistances(e.Locations, cfg.DistanceUnitM)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("location matrices differ across runs")
	}
	ta := TimeMatrix(g, e, NodeDistances(g, a), e.Vessels[0], cfg)
	tb := TimeMatrix(g, e, NodeDistances(g, b), e.Vessels[0], cfg)
	if !reflect.DeepEqual(ta, tb) {
		t.Fatal("time matrices differ across runs")
	}
}
