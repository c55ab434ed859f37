// Package config holds the planner configuration. Values default to the
// reference voyage parameters and may be overridden from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Distances. DistanceUnitM is the size of one integer distance unit in
	// meters; all matrix entries are multiples of it.
	DistanceUnitM         float64 `yaml:"distance_unit_m"`
	MaxDistancePerVehicle int64   `yaml:"max_distance_per_vehicle"`

	// Time, in minutes unless noted. MaxWaitingTime bounds slack at a single
	// node, MaxTimePerVehicle bounds the whole route.
	MaxWaitingTime    int64 `yaml:"max_waiting_time"`
	MaxTimePerVehicle int64 `yaml:"max_time_per_vehicle"`
	TimeWindowStartH  int64 `yaml:"time_window_start_h"`
	TimeWindowEndH    int64 `yaml:"time_window_end_h"`

	// RelaxEndArrival exempts vessel end nodes (not just the depot) from the
	// closing time-window bound, letting vessels finish their last leg late.
	RelaxEndArrival bool `yaml:"relax_end_arrival"`

	// Cargo handling.
	DepotLocation     string `yaml:"depot_location"`
	OneLiftKg         int64  `yaml:"one_lift_kg"`
	TimePerLiftLoad   int64  `yaml:"time_per_lift_load"`
	TimePerLiftUnload int64  `yaml:"time_per_lift_unload"`

	// Mooring overhead charged on location changes; the port rate is larger
	// to discourage one vessel from monopolizing port calls.
	MooringTime     int64 `yaml:"mooring_time"`
	MooringTimePort int64 `yaml:"mooring_time_port"`

	// Concurrent occupancy bounds per location category.
	PortCapacity     int64 `yaml:"port_capacity"`
	PlatformCapacity int64 `yaml:"platform_capacity"`

	// Projection the input coordinates are expressed in. Carried for
	// reporting; geometry arrives already projected.
	ProjectionEPSG int `yaml:"projection_epsg"`

	// Search budgets and relaxation.
	DropPenalty      int64 `yaml:"drop_penalty"`
	SolveTimeLimitS  int   `yaml:"solve_time_limit_s"`
	SolutionLimit    int   `yaml:"solution_limit"`
	LogSearch        bool  `yaml:"log_search"`
}

// Default returns the reference parameter set.
func Default() Config {
	return Config{
		DistanceUnitM:         100,
		MaxDistancePerVehicle: 100000000,
		MaxWaitingTime:        100000,
		MaxTimePerVehicle:     100000,
		TimeWindowStartH:      0,
		TimeWindowEndH:        24,
		RelaxEndArrival:       true,
		DepotLocation:         "Port",
		OneLiftKg:             100,
		TimePerLiftLoad:       3,
		TimePerLiftUnload:     3,
		MooringTime:           10,
		MooringTimePort:       120,
		PortCapacity:          6,
		PlatformCapacity:      1,
		ProjectionEPSG:        3857,
		DropPenalty:           100000000,
		SolveTimeLimitS:       10,
		SolutionLimit:         10000,
		LogSearch:             false,
	}
}

// Load reads defaults and overlays the YAML file at path when it exists.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// FromEnv loads the file named by SEAPLAN_CONFIG, or defaults.
func FromEnv() (Config, error) {
	return Load(os.Getenv("SEAPLAN_CONFIG"))
}

func (c Config) Validate() error {
	if c.DistanceUnitM <= 0 {
		return fmt.Errorf("config: distance_unit_m must be > 0")
	}
	if c.OneLiftKg <= 0 {
		return fmt.Errorf("config: one_lift_kg must be > 0")
	}
	if c.TimeWindowEndH <= c.TimeWindowStartH {
		return fmt.Errorf("config: time window end must be after start")
	}
	if c.DropPenalty <= 0 {
		return fmt.Errorf("config: drop_penalty must be > 0")
	}
	if c.PortCapacity < 1 || c.PlatformCapacity < 1 {
		return fmt.Errorf("config: occupancy capacities must be >= 1")
	}
	return nil
}

// WindowStart and WindowEnd return the global time window in minutes.
func (c Config) WindowStart() int64 { return c.TimeWindowStartH * 60 }

func (c Config) WindowEnd() int64 { return c.TimeWindowEndH * 60 }
