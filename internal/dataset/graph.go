package dataset

import (
	"seaplan/internal/config"
	"seaplan/internal/model"
)

// Graph is the ordered virtual node set plus the index bookkeeping every
// downstream component uses. Node order is load-bearing: depot first, then
// vessel start nodes, then vessel end nodes, then per item the pickup node
// followed by the delivery node.
type Graph struct {
	Nodes  []model.VirtualNode
	Depot  int
	Starts []int    // per vessel
	Ends   []int    // per vessel
	Pairs  [][2]int // per item: {pickup node, delivery node}
}

// BuildGraph expands the normalized entities into the virtual node sequence.
// Vessels without a resolved endpoint reuse the depot node rather than
// getting a dedicated one. Pure structural transform; no solving happens
// here.
func BuildGraph(e *Entities, cfg config.Config) *Graph {
	g := &Graph{
		Depot:  0,
		Starts: make([]int, len(e.Vessels)),
		Ends:   make([]int, len(e.Vessels)),
		Pairs:  make([][2]int, len(e.Items)),
	}

	add := func(role string, loc, item int, service, demand int64) int {
		idx := len(g.Nodes)
		g.Nodes = append(g.Nodes, model.VirtualNode{
			Index:    idx,
			Role:     role,
			Location: loc,
			Item:     item,
			Service:  service,
			Demand:   demand,
		})
		return idx
	}

	add(model.RoleDepot, e.Depot, -1, 0, 0)

	for vi, v := range e.Vessels {
		if v.Start < 0 || v.Start == e.Depot {
			g.Starts[vi] = g.Depot
		} else {
			g.Starts[vi] = add(model.RoleStart, v.Start, -1, 0, 0)
		}
	}
	for vi, v := range e.Vessels {
		if v.End < 0 || v.End == e.Depot {
			g.Ends[vi] = g.Depot
		} else {
			g.Ends[vi] = add(model.RoleEnd, v.End, -1, 0, 0)
		}
	}

	for ii, it := range e.Items {
		pickup := add(model.RolePickup, it.Pickup, ii, it.Lifts*cfg.TimePerLiftLoad, it.Weight)
		delivery := add(model.RoleDelivery, it.Delivery, ii, it.Lifts*cfg.TimePerLiftUnload, -it.Weight)
		g.Pairs[ii] = [2]int{pickup, delivery}
	}

	return g
}

// IsEndpoint reports whether node idx is the depot or a vessel endpoint.
func (g *Graph) IsEndpoint(idx int) bool {
	if idx == g.Depot {
		return true
	}
	r := g.Nodes[idx].Role
	return r == model.RoleStart || r == model.RoleEnd
}

// IsEnd reports whether node idx terminates some vessel's route.
func (g *Graph) IsEnd(idx int) bool {
	for _, e := range g.Ends {
		if e == idx {
			return true
		}
	}
	return false
}
