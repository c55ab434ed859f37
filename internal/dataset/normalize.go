// Package dataset turns raw location/item/vessel records into the normalized
// entity views and the virtual node graph consumed by the matrix generator
// and the constraint encoder.
package dataset

import (
	"fmt"
	"strings"
	"unicode"

	"seaplan/internal/config"
	"seaplan/internal/model"
)

// Entities is the normalized, immutable view of the three input collections.
type Entities struct {
	Locations []model.Location
	Items     []model.Item
	Vessels   []model.Vessel
	Depot     int // index into Locations of the configured depot
}

// CanonicalKey lower-cases a name and strips everything that is not a letter
// or digit, so "AB-1", "ab 1" and "Ab:1" all resolve to the same location.
func CanonicalKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// knotUnitsPerMin converts a speed in knots to distance units per minute.
func knotUnitsPerMin(kn float64, unitM float64) float64 {
	return kn * (1852.0 / unitM) / 60.0
}

// Normalize validates and canonicalizes the raw records. It resolves all
// name references against the location collection, coerces weights, derives
// missing lift counts, and converts vessel speeds. It has no side effects
// beyond validation.
func Normalize(req model.PlanRequest, cfg config.Config) (*Entities, error) {
	if len(req.Locations) == 0 {
		return nil, fmt.Errorf("dataset: at least one location is required")
	}

	locs := make([]model.Location, len(req.Locations))
	byKey := make(map[string]int, len(req.Locations))
	for i, in := range req.Locations {
		key := CanonicalKey(in.Name)
		if key == "" {
			return nil, fmt.Errorf("dataset: location %d has an empty name", i)
		}
		if prev, dup := byKey[key]; dup {
			return nil, fmt.Errorf("dataset: locations %q and %q normalize to the same key %q", req.Locations[prev].Name, in.Name, key)
		}
		byKey[key] = i

		cat := strings.ToLower(strings.TrimSpace(in.Category))
		if cat != "port" && cat != "platform" {
			return nil, fmt.Errorf("dataset: location %q has unknown category %q", in.Name, in.Category)
		}
		closures := make([]model.Closure, 0, len(in.Closures))
		for _, c := range in.Closures {
			if c.Start == nil && c.End == nil {
				return nil, fmt.Errorf("dataset: location %q has a closure with neither bound set", in.Name)
			}
			if c.Start != nil && c.End != nil && *c.End < *c.Start {
				return nil, fmt.Errorf("dataset: location %q has a closure ending before it starts", in.Name)
			}
			closures = append(closures, model.Closure{Start: c.Start, End: c.End})
		}
		locs[i] = model.Location{Name: in.Name, Category: cat, X: in.X, Y: in.Y, Closures: closures}
	}

	depot, ok := byKey[CanonicalKey(cfg.DepotLocation)]
	if !ok {
		return nil, &UnresolvedLocationError{Name: cfg.DepotLocation, Field: "depot"}
	}

	resolve := func(name, field string) (int, error) {
		if idx, ok := byKey[CanonicalKey(name)]; ok {
			return idx, nil
		}
		return 0, &UnresolvedLocationError{Name: name, Field: field}
	}

	items := make([]model.Item, len(req.Items))
	for i, in := range req.Items {
		pickup, err := resolve(in.Pickup, "pickup")
		if err != nil {
			return nil, err
		}
		delivery, err := resolve(in.Delivery, "delivery")
		if err != nil {
			return nil, err
		}
		weight, err := coerceWeight(in.Name, in.Weight)
		if err != nil {
			return nil, err
		}
		// One lift moves up to OneLiftKg; heavier cargo needs proportionally
		// more lifts. A supplied lift count is never overwritten.
		lifts := (weight + cfg.OneLiftKg - 1) / cfg.OneLiftKg
		if in.Lifts != nil {
			lifts = *in.Lifts
		}
		if lifts < 1 {
			return nil, fmt.Errorf("dataset: item %q has lift count %d (must be >= 1)", in.Name, lifts)
		}
		items[i] = model.Item{Name: in.Name, Pickup: pickup, Delivery: delivery, Weight: weight, Lifts: lifts}
	}

	vessels := make([]model.Vessel, len(req.Vessels))
	for i, in := range req.Vessels {
		if in.Capacity <= 0 || in.Capacity != float64(int64(in.Capacity)) {
			return nil, fmt.Errorf("dataset: vessel %q capacity %v must be a positive integer", in.Name, in.Capacity)
		}
		if in.SpeedKn <= 0 {
			return nil, fmt.Errorf("dataset: vessel %q speed %v must be > 0", in.Name, in.SpeedKn)
		}
		start, end := -1, -1
		if strings.TrimSpace(in.Start) != "" {
			if idx, ok := byKey[CanonicalKey(in.Start)]; ok {
				start = idx
			}
		}
		if strings.TrimSpace(in.End) != "" {
			if idx, ok := byKey[CanonicalKey(in.End)]; ok {
				end = idx
			}
		}
		vessels[i] = model.Vessel{
			Name:        in.Name,
			Capacity:    int64(in.Capacity),
			SpeedKn:     in.SpeedKn,
			UnitsPerMin: knotUnitsPerMin(in.SpeedKn, cfg.DistanceUnitM),
			Start:       start,
			End:         end,
		}
	}

	return &Entities{Locations: locs, Items: items, Vessels: vessels, Depot: depot}, nil
}

func coerceWeight(item string, w float64) (int64, error) {
	if w <= 0 || w != float64(int64(w)) {
		return 0, &InvalidWeightError{Item: item, Weight: w}
	}
	return int64(w), nil
}
