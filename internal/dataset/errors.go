package dataset

import "fmt"

// UnresolvedLocationError reports a pickup/delivery/endpoint name that does
// not match any location after normalization.
type UnresolvedLocationError struct {
	Name  string
	Field string
}

func (e *UnresolvedLocationError) Error() string {
	return fmt.Sprintf("dataset: %s location %q does not resolve to a known location", e.Field, e.Name)
}

// InvalidWeightError reports a non-positive or non-integral item weight.
type InvalidWeightError struct {
	Item   string
	Weight float64
}

func (e *InvalidWeightError) Error() string {
	return fmt.Sprintf("dataset: item %q has invalid weight %v (must be a positive integer)", e.Item, e.Weight)
}
