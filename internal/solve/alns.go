package solve

import (
	"context"
	"log"
	"math"
	"math/rand"
	"sort"
	"time"

	"seaplan/internal/encode"
)

// ALNS is an adaptive large-neighborhood search over pickup-delivery pairs:
// random/related removal, greedy/regret-2 insertion, simulated-annealing
// acceptance, and roulette-wheel operator weights that adapt to what works.
type ALNS struct {
	InitialTemp float64
	Cooling     float64
}

// NewALNS returns an engine with the default annealing schedule.
func NewALNS() *ALNS { return &ALNS{InitialTemp: 1.0, Cooling: 0.995} }

// state is one candidate solution: per-vessel interior node orders plus the
// schedules derived from them.
type state struct {
	orders    [][]int
	visits    [][]Visit
	dists     []int64
	dropped   map[int]bool // pair index -> dropped
	objective int64
	cost      float64
}

func (s *state) clone() *state {
	out := &state{
		orders:    make([][]int, len(s.orders)),
		visits:    make([][]Visit, len(s.visits)),
		dists:     append([]int64(nil), s.dists...),
		dropped:   make(map[int]bool, len(s.dropped)),
		objective: s.objective,
		cost:      s.cost,
	}
	for i := range s.orders {
		out.orders[i] = append([]int(nil), s.orders[i]...)
		out.visits[i] = append([]Visit(nil), s.visits[i]...)
	}
	for k := range s.dropped {
		out.dropped[k] = true
	}
	return out
}

// Solve runs the search within the configured budgets. The drop-penalty
// relaxation guarantees a result whenever the vessels themselves can be
// scheduled; ErrNoFeasibleSolution surfaces only when they cannot.
func (a *ALNS) Solve(ctx context.Context, m *encode.Model, p Params) (Assignment, error) {
	seed := p.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	curr, ok := seedSolution(m)
	if !ok {
		return Assignment{}, ErrNoFeasibleSolution
	}
	best := curr.clone()

	remW := [2]float64{1, 1} // random, related
	insW := [2]float64{1, 1} // greedy, regret2
	temp := a.InitialTemp
	if temp <= 0 {
		temp = 1.0
	}
	cool := a.Cooling
	if cool <= 0 || cool >= 1 {
		cool = 0.995
	}

	met := Metrics{BestCost: best.cost}
	deadline := time.Now().Add(p.TimeBudget)

	for len(m.Pairs) > 0 && time.Now().Before(deadline) {
		if ctx.Err() != nil {
			break
		}
		if p.IterationLimit > 0 && met.Iterations >= p.IterationLimit {
			break
		}
		if p.SolutionLimit > 0 && met.Solutions >= p.SolutionLimit {
			break
		}
		met.Iterations++

		k := 1 + rng.Intn(2)
		op := selectOp(remW, rng)
		ip := selectOp(insW, rng)
		met.RemovalSelects[op]++
		met.InsertSelects[ip]++

		cand := curr.clone()
		var removed []int
		switch op {
		case 0:
			removed = randomRemoval(rng, m, cand, k)
		case 1:
			removed = relatedRemoval(rng, m, cand, k)
		}
		removePairs(m, cand, removed)
		pool := droppedPool(cand)
		switch ip {
		case 0:
			greedyInsert(m, cand, pool)
		case 1:
			regretInsert(m, cand, pool)
		}
		relocateImprove(m, cand)
		computeCost(m, cand)

		delta := cand.cost - best.cost
		if delta < 0 || rng.Float64() < math.Exp(-delta/(temp+1e-9)) {
			curr = cand
			met.Solutions++
			if cand.cost < best.cost {
				best = cand.clone()
				remW[op] += 0.1
				insW[ip] += 0.1
				met.Improvements++
				met.BestCost = best.cost
				if p.Progress != nil {
					p.Progress(Event{Iteration: met.Iterations, BestCost: best.cost, Objective: best.objective, Dropped: 2 * len(best.dropped)})
				}
			} else {
				remW[op] += 0.01
				insW[ip] += 0.01
				met.AcceptedWorse++
			}
		} else {
			remW[op] = math.Max(0.01, remW[op]*0.999)
			insW[ip] = math.Max(0.01, insW[ip]*0.999)
		}
		temp *= cool

		if p.LogSearch && met.Iterations%200 == 0 {
			log.Printf("alns: iter=%d best=%.0f dropped=%d", met.Iterations, best.cost, len(best.dropped))
		}
		if p.Progress != nil && met.Iterations%100 == 0 {
			p.Progress(Event{Iteration: met.Iterations, BestCost: best.cost, Objective: best.objective, Dropped: 2 * len(best.dropped)})
		}
	}

	met.RemovalWeights = remW
	met.InsertWeights = insW
	if p.OnMetrics != nil {
		p.OnMetrics(met)
	}
	return toAssignment(m, best), nil
}

// seedSolution schedules every vessel empty, then greedily inserts all
// pairs. Returns false when even the empty routes cannot be scheduled.
func seedSolution(m *encode.Model) (*state, bool) {
	st := &state{
		orders:  make([][]int, len(m.Capacities)),
		visits:  make([][]Visit, len(m.Capacities)),
		dists:   make([]int64, len(m.Capacities)),
		dropped: map[int]bool{},
	}
	for vi := range st.orders {
		st.orders[vi] = []int{}
		v, d, ok := schedule(m, vi, nil)
		if !ok {
			return nil, false
		}
		st.visits[vi] = v
		st.dists[vi] = d
	}
	all := make([]int, len(m.Pairs))
	for i := range all {
		all[i] = i
	}
	greedyInsert(m, st, all)
	computeCost(m, st)
	return st, true
}

// schedule simulates one vessel over an interior node order: waiting is
// bounded by MaxWait per node, load stays within [0, capacity] at every
// prefix, cumulative distance within MaxDistance, and every arrival within
// the node's window and the per-vehicle time cap.
func schedule(m *encode.Model, vi int, order []int) ([]Visit, int64, bool) {
	start, end := m.Starts[vi], m.Ends[vi]
	t := m.Windows[start].NextAllowed(m.Windows[start].Start)
	if t < 0 {
		return nil, 0, false
	}
	visits := make([]Visit, 0, len(order)+2)
	visits = append(visits, Visit{Node: start, Arrival: t})

	var load, dist int64
	cur := start
	for _, nd := range order {
		arr := t + m.Time[vi][cur][nd]
		a := m.Windows[nd].NextAllowed(arr)
		if a < 0 || a-arr > m.MaxWait || a > m.MaxTime {
			return nil, 0, false
		}
		load += m.Demands[nd]
		if load < 0 || load > m.Capacities[vi] {
			return nil, 0, false
		}
		dist += m.Dist[cur][nd]
		if dist > m.MaxDistance {
			return nil, 0, false
		}
		t = a
		cur = nd
		visits = append(visits, Visit{Node: nd, Arrival: t, Load: load})
	}

	arr := t + m.Time[vi][cur][end]
	a := m.Windows[end].NextAllowed(arr)
	if a < 0 || a-arr > m.MaxWait || a > m.MaxTime {
		return nil, 0, false
	}
	dist += m.Dist[cur][end]
	if dist > m.MaxDistance {
		return nil, 0, false
	}
	visits = append(visits, Visit{Node: end, Arrival: a, Load: load})
	return visits, dist, true
}

type occEvent struct {
	at    int64
	delta int64
}

// occupancyOK sweeps the active intervals at each constrained location and
// rejects schedules where concurrent occupation exceeds the bound.
// Intervals are half-open [arrival, arrival+service); zero-service nodes
// have no footprint.
func occupancyOK(m *encode.Model, visits [][]Visit) bool {
	arrivals := make(map[int]int64, len(m.Service))
	for _, route := range visits {
		for _, v := range route {
			arrivals[v.Node] = v.Arrival
		}
	}
	var events []occEvent
	for _, occ := range m.Occ {
		events = events[:0]
		for _, nd := range occ.Nodes {
			at, visited := arrivals[nd]
			if !visited || m.Service[nd] == 0 {
				continue
			}
			events = append(events, occEvent{at: at, delta: 1}, occEvent{at: at + m.Service[nd], delta: -1})
		}
		if int64(len(events)/2) <= occ.Capacity {
			continue
		}
		sort.Slice(events, func(i, j int) bool {
			if events[i].at != events[j].at {
				return events[i].at < events[j].at
			}
			return events[i].delta < events[j].delta // ends before starts
		})
		var active int64
		for _, ev := range events {
			active += ev.delta
			if active > occ.Capacity {
				return false
			}
		}
	}
	return true
}

func computeCost(m *encode.Model, st *state) {
	var obj int64
	for _, route := range st.visits {
		obj += route[len(route)-1].Arrival
	}
	st.objective = obj
	st.cost = float64(obj) + float64(m.DropPenalty)*float64(2*len(st.dropped))
}

// assignedPairs lists pair indices currently routed, in index order.
func assignedPairs(m *encode.Model, st *state) []int {
	out := make([]int, 0, len(m.Pairs))
	for i := range m.Pairs {
		if !st.dropped[i] {
			out = append(out, i)
		}
	}
	return out
}

func randomRemoval(rng *rand.Rand, m *encode.Model, st *state, k int) []int {
	avail := assignedPairs(m, st)
	removed := []int{}
	for i := 0; i < k && len(avail) > 0; i++ {
		j := rng.Intn(len(avail))
		removed = append(removed, avail[j])
		avail = append(avail[:j], avail[j+1:]...)
	}
	return removed
}

// relatedRemoval removes a seed pair plus the pairs most related to it by
// pickup/delivery proximity, in the spirit of Shaw removal.
func relatedRemoval(rng *rand.Rand, m *encode.Model, st *state, k int) []int {
	assigned := assignedPairs(m, st)
	if len(assigned) == 0 {
		return nil
	}
	seedPair := assigned[rng.Intn(len(assigned))]
	sp := m.Pairs[seedPair]

	type scored struct {
		pair  int
		score int64
	}
	rel := []scored{}
	for _, pr := range assigned {
		if pr == seedPair {
			continue
		}
		o := m.Pairs[pr]
		rel = append(rel, scored{pair: pr, score: m.Dist[sp[0]][o[0]] + m.Dist[sp[1]][o[1]]})
	}
	sort.Slice(rel, func(i, j int) bool {
		if rel[i].score != rel[j].score {
			return rel[i].score < rel[j].score
		}
		return rel[i].pair < rel[j].pair
	})
	removed := []int{seedPair}
	for i := 0; i < len(rel) && len(removed) < k; i++ {
		removed = append(removed, rel[i].pair)
	}
	return removed
}

// droppedPool lists every currently dropped pair, so items shed at seed
// time or by a route reset keep competing for insertion each iteration.
func droppedPool(st *state) []int {
	out := make([]int, 0, len(st.dropped))
	for pr := range st.dropped {
		out = append(out, pr)
	}
	sort.Ints(out)
	return out
}

func removePairs(m *encode.Model, st *state, pairs []int) {
	if len(pairs) == 0 {
		return
	}
	rm := map[int]bool{}
	for _, pr := range pairs {
		rm[m.Pairs[pr][0]] = true
		rm[m.Pairs[pr][1]] = true
		st.dropped[pr] = true
	}
	changedRoutes := []int{}
	for vi := range st.orders {
		kept := make([]int, 0, len(st.orders[vi]))
		changed := false
		for _, nd := range st.orders[vi] {
			if rm[nd] {
				changed = true
				continue
			}
			kept = append(kept, nd)
		}
		if !changed {
			continue
		}
		st.orders[vi] = kept
		if v, d, ok := schedule(m, vi, kept); ok {
			st.visits[vi] = v
			st.dists[vi] = d
			changedRoutes = append(changedRoutes, vi)
			continue
		}
		// Earlier arrivals after the removal can land in a closure whose
		// wait exceeds the slack bound. Shed the whole route; the
		// insertion pass gets a chance to rebuild it.
		shedRoute(m, st, vi)
	}
	// Rescheduled visits can also slide into another vessel's occupancy
	// interval; the state must never carry such a violation forward.
	for _, vi := range changedRoutes {
		if occupancyOK(m, st.visits) {
			break
		}
		shedRoute(m, st, vi)
	}
}

// shedRoute drops every pair still on route vi and empties it.
func shedRoute(m *encode.Model, st *state, vi int) {
	for pair, nodes := range m.Pairs {
		if contains(st.orders[vi], nodes[0]) {
			st.dropped[pair] = true
		}
	}
	st.orders[vi] = []int{}
	v, d, _ := schedule(m, vi, nil)
	st.visits[vi] = v
	st.dists[vi] = d
}

// insertion captures one feasible placement of a pair.
type insertion struct {
	vessel   int
	order    []int
	visits   []Visit
	dist     int64
	delta    int64
	feasible bool
}

// bestInVessel returns the two cheapest schedule-feasible placements of a
// pair within one vessel, by end-of-route delta. Occupancy is verified by
// the caller once a placement is chosen.
func bestInVessel(m *encode.Model, st *state, pair, vi int) (insertion, insertion) {
	p, d := m.Pairs[pair][0], m.Pairs[pair][1]
	best := insertion{delta: math.MaxInt64}
	second := insertion{delta: math.MaxInt64}
	base := st.visits[vi][len(st.visits[vi])-1].Arrival
	L := len(st.orders[vi])
	for pi := 0; pi <= L; pi++ {
		for di := pi + 1; di <= L+1; di++ {
			cand := insertPairOrder(st.orders[vi], p, d, pi, di)
			v, dist, ok := schedule(m, vi, cand)
			if !ok {
				continue
			}
			delta := v[len(v)-1].Arrival - base
			ins := insertion{vessel: vi, order: cand, visits: v, dist: dist, delta: delta, feasible: true}
			switch {
			case !best.feasible || delta < best.delta:
				second = best
				best = ins
			case !second.feasible || delta < second.delta:
				second = ins
			}
		}
	}
	return best, second
}

// bestInsertions merges per-vessel candidates into the two cheapest overall.
func bestInsertions(m *encode.Model, st *state, pair int) (insertion, insertion) {
	best := insertion{delta: math.MaxInt64}
	second := insertion{delta: math.MaxInt64}
	consider := func(ins insertion) {
		if !ins.feasible {
			return
		}
		switch {
		case !best.feasible || ins.delta < best.delta:
			second = best
			best = ins
		case !second.feasible || ins.delta < second.delta:
			second = ins
		}
	}
	for vi := range st.orders {
		b, s := bestInVessel(m, st, pair, vi)
		consider(b)
		consider(s)
	}
	return best, second
}

func insertPairOrder(order []int, p, d, pi, di int) []int {
	out := make([]int, 0, len(order)+2)
	out = append(out, order[:pi]...)
	out = append(out, p)
	out = append(out, order[pi:]...)
	// di indexes the slice after the pickup insertion
	rest := make([]int, 0, len(out)+1)
	rest = append(rest, out[:di]...)
	rest = append(rest, d)
	rest = append(rest, out[di:]...)
	return rest
}

// apply commits an insertion if the full solution stays within the
// occupancy bounds; on violation the state is left untouched.
func apply(m *encode.Model, st *state, pair int, ins insertion) bool {
	if !ins.feasible {
		return false
	}
	prevOrder := st.orders[ins.vessel]
	prevVisits := st.visits[ins.vessel]
	prevDist := st.dists[ins.vessel]
	st.orders[ins.vessel] = ins.order
	st.visits[ins.vessel] = ins.visits
	st.dists[ins.vessel] = ins.dist
	if !occupancyOK(m, st.visits) {
		st.orders[ins.vessel] = prevOrder
		st.visits[ins.vessel] = prevVisits
		st.dists[ins.vessel] = prevDist
		return false
	}
	delete(st.dropped, pair)
	return true
}

// greedyInsert places each pair at its cheapest feasible position; pairs
// with no feasible placement stay dropped.
func greedyInsert(m *encode.Model, st *state, pairs []int) {
	for _, pair := range pairs {
		best, second := bestInsertions(m, st, pair)
		if !apply(m, st, pair, best) && !apply(m, st, pair, second) {
			st.dropped[pair] = true
		}
	}
}

// regretInsert repeatedly places the pair that would lose the most by not
// taking its best slot now (regret-2).
func regretInsert(m *encode.Model, st *state, pairs []int) {
	pending := append([]int(nil), pairs...)
	for len(pending) > 0 {
		bestPair := -1
		bestIdx := -1
		var bestIns, bestSecond insertion
		var bestRegret int64 = -1
		for i, pair := range pending {
			ins, second := bestInsertions(m, st, pair)
			if !ins.feasible {
				continue
			}
			regret := int64(math.MaxInt64)
			if second.feasible {
				regret = second.delta - ins.delta
			}
			if regret > bestRegret {
				bestRegret = regret
				bestPair = pair
				bestIdx = i
				bestIns = ins
				bestSecond = second
			}
		}
		if bestPair < 0 {
			for _, pair := range pending {
				st.dropped[pair] = true
			}
			return
		}
		if !apply(m, st, bestPair, bestIns) && !apply(m, st, bestPair, bestSecond) {
			st.dropped[bestPair] = true
		}
		pending = append(pending[:bestIdx], pending[bestIdx+1:]...)
	}
}

// relocateImprove moves single pairs to cheaper positions within their own
// route while feasibility and occupancy hold.
func relocateImprove(m *encode.Model, st *state) {
	for vi := range st.orders {
		improved := true
		for improved {
			improved = false
			for pair := range m.Pairs {
				if st.dropped[pair] || !contains(st.orders[vi], m.Pairs[pair][0]) {
					continue
				}
				before := st.visits[vi][len(st.visits[vi])-1].Arrival
				saved := st.orders[vi]
				savedVisits := st.visits[vi]
				savedDist := st.dists[vi]

				trimmed := withoutPair(saved, m.Pairs[pair])
				v, d, ok := schedule(m, vi, trimmed)
				if !ok {
					continue
				}
				st.orders[vi] = trimmed
				st.visits[vi] = v
				st.dists[vi] = d
				ins, _ := bestInVessel(m, st, pair, vi)
				if ins.feasible && ins.visits[len(ins.visits)-1].Arrival < before && apply(m, st, pair, ins) {
					improved = true
					continue
				}
				st.orders[vi] = saved
				st.visits[vi] = savedVisits
				st.dists[vi] = savedDist
			}
		}
	}
}

func withoutPair(order []int, pair [2]int) []int {
	out := make([]int, 0, len(order))
	for _, nd := range order {
		if nd == pair[0] || nd == pair[1] {
			continue
		}
		out = append(out, nd)
	}
	return out
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func selectOp(weights [2]float64, rng *rand.Rand) int {
	sum := weights[0] + weights[1]
	if sum <= 0 {
		return 0
	}
	if rng.Float64()*sum <= weights[0] {
		return 0
	}
	return 1
}

func toAssignment(m *encode.Model, st *state) Assignment {
	out := Assignment{Objective: st.objective}
	for vi := range st.visits {
		out.Routes = append(out.Routes, Route{Vessel: vi, Visits: append([]Visit(nil), st.visits[vi]...)})
	}
	dropped := []int{}
	for pair := range st.dropped {
		dropped = append(dropped, m.Pairs[pair][0], m.Pairs[pair][1])
	}
	sort.Ints(dropped)
	out.Dropped = dropped
	return out
}
