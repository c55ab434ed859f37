// Package plan turns solved assignments into auditable leg-by-leg
// itineraries and drives the normalize-encode-solve-reconstruct pipeline.
package plan

import (
	"fmt"

	"seaplan/internal/encode"
	"seaplan/internal/model"
	"seaplan/internal/solve"
)

// InconsistentAssignmentError means the engine returned a node index the
// model never defined. That is a contract break between encoder and engine,
// not a data problem, and is never swallowed.
type InconsistentAssignmentError struct {
	Vessel string
	Node   int
}

func (e *InconsistentAssignmentError) Error() string {
	return fmt.Sprintf("plan: assignment for vessel %q references unknown node %d", e.Vessel, e.Node)
}

// Reconstruct walks each vessel's visit sequence pairwise and emits one
// RouteLeg per arc. The action and cargo identity belong to the leg's
// origin node; distance and elapsed time are read from the model's
// matrices, never recomputed. Vessels with no non-endpoint visits produce
// zero legs.
func Reconstruct(m *encode.Model, asg solve.Assignment) ([]model.VesselRoute, error) {
	out := make([]model.VesselRoute, 0, len(asg.Routes))
	for _, r := range asg.Routes {
		vessel := m.Entities.Vessels[r.Vessel]
		vr := model.VesselRoute{Vessel: vessel.Name}

		for _, v := range r.Visits {
			if v.Node < 0 || v.Node >= len(m.Graph.Nodes) {
				return nil, &InconsistentAssignmentError{Vessel: vessel.Name, Node: v.Node}
			}
		}
		if len(r.Visits) > 2 {
			for i := 1; i < len(r.Visits); i++ {
				u, v := r.Visits[i-1], r.Visits[i]
				vr.Legs = append(vr.Legs, buildLeg(m, vessel.Name, i-1, u, v))
				vr.TotalDistance += m.Dist[u.Node][v.Node]
			}
			first := r.Visits[0].Arrival
			last := r.Visits[len(r.Visits)-1].Arrival
			vr.TotalTime = last - first
		}
		out = append(out, vr)
	}
	return out, nil
}

func buildLeg(m *encode.Model, vessel string, ordinal int, u, v solve.Visit) model.RouteLeg {
	from := m.Graph.Nodes[u.Node]
	to := m.Graph.Nodes[v.Node]
	leg := model.RouteLeg{
		Vessel:       vessel,
		Leg:          ordinal,
		FromNode:     u.Node,
		ToNode:       v.Node,
		FromLocation: m.Entities.Locations[from.Location].Name,
		ToLocation:   m.Entities.Locations[to.Location].Name,
		Action:       "none",
		FromTime:     u.Arrival,
		ToTime:       v.Arrival,
		Distance:     m.Dist[u.Node][v.Node],
		Elapsed:      v.Arrival - u.Arrival,
	}
	switch from.Role {
	case model.RolePickup:
		it := m.Entities.Items[from.Item]
		leg.Action = "load"
		leg.Item = it.Name
		leg.WeightDelta = from.Demand
		leg.LiftsDelta = it.Lifts
	case model.RoleDelivery:
		it := m.Entities.Items[from.Item]
		leg.Action = "unload"
		leg.Item = it.Name
		leg.WeightDelta = from.Demand
		leg.LiftsDelta = -it.Lifts
	}
	return leg
}
