package api

import (
	"fmt"

	"seaplan/internal/model"
)

func validatePlanRequest(req *model.PlanRequest) error {
	if len(req.Locations) == 0 {
		return fmt.Errorf("at least one location is required")
	}
	if len(req.Vessels) == 0 {
		return fmt.Errorf("at least one vessel is required")
	}
	for i, l := range req.Locations {
		if l.Name == "" {
			return fmt.Errorf("locations[%d]: name is required", i)
		}
		if l.Category != "port" && l.Category != "platform" {
			return fmt.Errorf("locations[%d]: category must be port or platform", i)
		}
	}
	for i, it := range req.Items {
		if it.Name == "" {
			return fmt.Errorf("items[%d]: name is required", i)
		}
		if it.Pickup == "" || it.Delivery == "" {
			return fmt.Errorf("items[%d]: pickup and delivery are required", i)
		}
		if it.Lifts != nil && *it.Lifts < 1 {
			return fmt.Errorf("items[%d]: lifts must be >= 1", i)
		}
	}
	for i, v := range req.Vessels {
		if v.Name == "" {
			return fmt.Errorf("vessels[%d]: name is required", i)
		}
		if v.Capacity <= 0 {
			return fmt.Errorf("vessels[%d]: capacity must be > 0", i)
		}
		if v.SpeedKn <= 0 {
			return fmt.Errorf("vessels[%d]: speedKn must be > 0", i)
		}
	}
	if s := req.Search; s != nil {
		if s.TimeBudgetMs < 0 {
			return fmt.Errorf("search.timeBudgetMs must be >= 0")
		}
		if s.SolutionLimit < 0 {
			return fmt.Errorf("search.solutionLimit must be >= 0")
		}
	}
	return nil
}
