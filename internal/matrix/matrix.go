// Package matrix computes the integer distance and per-vessel time matrices
// over the virtual node graph. Generation is deterministic: unchanged inputs
// yield bit-identical matrices.
package matrix

import (
	"math"

	"seaplan/internal/config"
	"seaplan/internal/dataset"
	"seaplan/internal/model"
)

// LocationDistances returns the symmetric pairwise matrix of straight-line
// distances between real locations, in integer distance units. Values round
// to the nearest unit; truncating would systematically underestimate travel.
func LocationDistances(locs []model.Location, unitM float64) [][]int64 {
	n := len(locs)
	out := make([][]int64, n)
	for i := range out {
		out[i] = make([]int64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := math.Hypot(locs[i].X-locs[j].X, locs[i].Y-locs[j].Y)
			u := int64(math.Round(d / unitM))
			out[i][j] = u
			out[j][i] = u
		}
	}
	return out
}

// NodeDistances maps the location matrix onto every ordered pair of virtual
// nodes. Nodes sharing a backing location are at distance 0.
func NodeDistances(g *dataset.Graph, locDist [][]int64) [][]int64 {
	n := len(g.Nodes)
	out := make([][]int64, n)
	for i := range out {
		out[i] = make([]int64, n)
	}
	for i := 0; i < n; i++ {
		li := g.Nodes[i].Location
		for j := i + 1; j < n; j++ {
			d := locDist[li][g.Nodes[j].Location]
			out[i][j] = d
			out[j][i] = d
		}
	}
	return out
}

// TimeMatrix derives one vessel's node-to-node times: travel at the vessel's
// speed, plus service time at the origin node, plus mooring overhead. The
// service attribution makes the matrix asymmetric even though distances are
// symmetric. Every entry is integral.
func TimeMatrix(g *dataset.Graph, e *dataset.Entities, nodeDist [][]int64, vessel model.Vessel, cfg config.Config) [][]int64 {
	n := len(g.Nodes)
	out := make([][]int64, n)
	for i := range out {
		out[i] = make([]int64, n)
		for j := range out[i] {
			if i == j {
				continue
			}
			travel := int64(math.Round(float64(nodeDist[i][j]) / vessel.UnitsPerMin))
			out[i][j] = travel + g.Nodes[i].Service + mooring(g, e, i, j, cfg)
		}
	}
	return out
}

// mooring charges the unmoor/moor overhead on transitions between distinct
// real locations. Port arrivals carry a heavier rate, which doubles as the
// penalty keeping a single vessel from monopolizing port calls. Depot
// transitions and arrivals at a vessel's end node are exempt.
func mooring(g *dataset.Graph, e *dataset.Entities, from, to int, cfg config.Config) int64 {
	u, v := g.Nodes[from], g.Nodes[to]
	if u.Location == v.Location {
		return 0
	}
	if from == g.Depot || to == g.Depot || g.IsEnd(to) {
		return 0
	}
	if e.Locations[v.Location].Category == "port" {
		return cfg.MooringTimePort
	}
	return cfg.MooringTime
}
