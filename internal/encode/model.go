// Package encode assembles the routing constraint model: dimensions for
// distance, time and capacity, per-node time windows, pickup-delivery
// pairing, the location occupancy bound, and the drop-with-penalty
// relaxation. The encoded model is the only thing the solving engine sees.
package encode

import (
	"fmt"
	"math"

	"seaplan/internal/config"
	"seaplan/internal/dataset"
	"seaplan/internal/matrix"
	"seaplan/internal/model"
)

// Horizon far enough out that a relaxed closing bound never binds.
const openEnd = math.MaxInt64 / 4

// ModelConstructionError reports a model that is infeasible by construction,
// detected before any solve attempt.
type ModelConstructionError struct {
	Detail string
}

func (e *ModelConstructionError) Error() string {
	return "encode: " + e.Detail
}

// Span is a closed interval of minutes removed from a node's time window.
type Span struct {
	From, To int64
}

// Window is the feasible arrival-time domain of a node: [Start, End] minus
// the Blocked spans. Blocked spans are shifted earlier by the node's service
// time, since service must finish before a closure begins.
type Window struct {
	Start, End int64
	Blocked    []Span
}

// Allows reports whether arrival time t lies in the window.
func (w Window) Allows(t int64) bool {
	if t < w.Start || t > w.End {
		return false
	}
	for _, b := range w.Blocked {
		if t >= b.From && t <= b.To {
			return false
		}
	}
	return true
}

// NextAllowed returns the earliest time >= t the window allows, or -1.
func (w Window) NextAllowed(t int64) int64 {
	if t < w.Start {
		t = w.Start
	}
	for {
		moved := false
		for _, b := range w.Blocked {
			if t >= b.From && t <= b.To {
				t = b.To + 1
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	if t > w.End {
		return -1
	}
	return t
}

// Occupancy bounds concurrent activity at one real location. Member nodes
// occupy the location from arrival until arrival plus service time; the
// count of overlapping occupations must never exceed Capacity.
type Occupancy struct {
	Location int
	Capacity int64
	Nodes    []int
}

// Model is the encoded constraint model plus the index bookkeeping needed to
// interpret a returned assignment.
type Model struct {
	Entities *dataset.Entities
	Graph    *dataset.Graph

	Dist [][]int64   // node x node, distance units
	Time [][][]int64 // vessel x node x node, minutes

	Demands  []int64 // signed, per node
	Service  []int64 // per node
	Windows  []Window
	Pairs    [][2]int
	Occ      []Occupancy
	Starts   []int
	Ends     []int
	Depot    int

	Capacities  []int64 // per vessel
	MaxDistance int64
	MaxWait     int64
	MaxTime     int64
	DropPenalty int64
}

// Build encodes the normalized entities and matrices into a Model. It fails
// with ModelConstructionError when a dimension bound is violated by
// construction, so structural infeasibility surfaces before an opaque
// search does.
func Build(e *dataset.Entities, g *dataset.Graph, nodeDist [][]int64, times [][][]int64, cfg config.Config) (*Model, error) {
	if len(e.Vessels) == 0 {
		return nil, &ModelConstructionError{Detail: "no vessels"}
	}
	if err := checkIntegral(nodeDist, times); err != nil {
		return nil, err
	}

	caps := make([]int64, len(e.Vessels))
	var maxCap int64
	for i, v := range e.Vessels {
		caps[i] = v.Capacity
		if v.Capacity > maxCap {
			maxCap = v.Capacity
		}
	}
	for _, it := range e.Items {
		if it.Weight > maxCap {
			return nil, &ModelConstructionError{
				Detail: fmt.Sprintf("item %q weighs %d, above every vessel capacity (max %d)", it.Name, it.Weight, maxCap),
			}
		}
	}

	m := &Model{
		Entities:    e,
		Graph:       g,
		Dist:        nodeDist,
		Time:        times,
		Pairs:       g.Pairs,
		Starts:      g.Starts,
		Ends:        g.Ends,
		Depot:       g.Depot,
		Capacities:  caps,
		MaxDistance: cfg.MaxDistancePerVehicle,
		MaxWait:     cfg.MaxWaitingTime,
		MaxTime:     cfg.MaxTimePerVehicle,
		DropPenalty: cfg.DropPenalty,
	}

	m.Demands = make([]int64, len(g.Nodes))
	m.Service = make([]int64, len(g.Nodes))
	m.Windows = make([]Window, len(g.Nodes))
	for i, nd := range g.Nodes {
		m.Demands[i] = nd.Demand
		m.Service[i] = nd.Service
		m.Windows[i] = nodeWindow(e, g, nd, cfg)
	}

	m.Occ = occupancies(e, g, cfg)
	return m, nil
}

// nodeWindow builds one node's arrival-time domain. The depot keeps an open
// closing bound (vessels may return late); vessel end nodes do too when
// configured. Location closures are removed from the domain, each shifted
// earlier by the node's service time.
func nodeWindow(e *dataset.Entities, g *dataset.Graph, nd model.VirtualNode, cfg config.Config) Window {
	w := Window{Start: cfg.WindowStart(), End: cfg.WindowEnd()}
	if nd.Index == g.Depot || (cfg.RelaxEndArrival && nd.Role == model.RoleEnd) {
		w.End = openEnd
	}
	for _, c := range e.Locations[nd.Location].Closures {
		from := cfg.WindowStart()
		if c.Start != nil {
			from = *c.Start - nd.Service
		}
		to := cfg.WindowEnd()
		if c.End != nil {
			to = *c.End
		}
		w.Blocked = append(w.Blocked, Span{From: from, To: to})
	}
	return w
}

// occupancies collects, per real location, the nodes whose activity counts
// against that location's concurrency bound. The depot and vessel end nodes
// are excluded; which intervals actually overlap depends on the arrival
// times the solver picks, so only membership is encoded here.
func occupancies(e *dataset.Entities, g *dataset.Graph, cfg config.Config) []Occupancy {
	byLoc := make(map[int][]int)
	for _, nd := range g.Nodes {
		if nd.Index == g.Depot || nd.Role == model.RoleEnd {
			continue
		}
		byLoc[nd.Location] = append(byLoc[nd.Location], nd.Index)
	}
	out := make([]Occupancy, 0, len(byLoc))
	for loc := 0; loc < len(e.Locations); loc++ {
		nodes, ok := byLoc[loc]
		if !ok {
			continue
		}
		capacity := cfg.PlatformCapacity
		if e.Locations[loc].Category == "port" {
			capacity = cfg.PortCapacity
		}
		out = append(out, Occupancy{Location: loc, Capacity: capacity, Nodes: nodes})
	}
	return out
}

// checkIntegral guards the model boundary against numeric corruption: a
// negative or absurd entry means a conversion upstream went wrong, and the
// engine would degrade silently instead of failing loudly.
func checkIntegral(dist [][]int64, times [][][]int64) error {
	for i := range dist {
		for j := range dist[i] {
			if dist[i][j] < 0 {
				return &ModelConstructionError{Detail: fmt.Sprintf("negative distance at (%d,%d)", i, j)}
			}
		}
	}
	for v := range times {
		for i := range times[v] {
			for j := range times[v][i] {
				if t := times[v][i][j]; t < 0 || t >= openEnd {
					return &ModelConstructionError{Detail: fmt.Sprintf("corrupt time entry %d at vessel %d (%d,%d)", t, v, i, j)}
				}
			}
		}
	}
	return nil
}

// Encode is the full matrix-then-model pipeline for one entity set.
func Encode(e *dataset.Entities, g *dataset.Graph, cfg config.Config) (*Model, error) {
	locDist := matrix.LocationDistances(e.Locations, cfg.DistanceUnitM)
	nodeDist := matrix.NodeDistances(g, locDist)
	times := make([][][]int64, len(e.Vessels))
	for i, v := range e.Vessels {
		times[i] = matrix.TimeMatrix(g, e, nodeDist, v, cfg)
	}
	return Build(e, g, nodeDist, times, cfg)
}
