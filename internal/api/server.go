package api

import (
	"context"
	"os"
	"strings"

	"seaplan/internal/config"
	"seaplan/internal/plan"
	"seaplan/internal/solve"
	"seaplan/internal/store"
)

type Server struct {
	Store   store.Store
	Broker  EventBroker
	Planner *plan.Planner
	Cfg     config.Config
}

// NewServer creates a Server. If DATABASE_URL is unset, uses in-memory store.
func NewServer() (*Server, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}

	dsn := os.Getenv("DATABASE_URL")
	var s store.Store
	if strings.TrimSpace(dsn) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(dsn)
		if err != nil {
			return nil, err
		}
		s = sp
	}

	var broker EventBroker
	if os.Getenv("REDIS_URL") != "" {
		if rb, err := NewRedisBroker(); err == nil {
			broker = rb
		} else {
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}

	return &Server{
		Store:   s,
		Broker:  broker,
		Planner: plan.NewPlanner(solve.NewALNS(), cfg),
		Cfg:     cfg,
	}, nil
}

// pinger is satisfied by the postgres store; the memory store is always ready.
type pinger interface {
	Ping(ctx context.Context) error
}
