package api

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"fieldnav/internal/auth"
	"fieldnav/internal/catalog"
	"fieldnav/internal/config"
	"fieldnav/internal/model"
	"fieldnav/internal/opt"
	"fieldnav/internal/sim"
	"fieldnav/internal/store"
	"fieldnav/internal/webhooks"
)

// GlobalTopic is the broker topic carrying progress events for every
// competition run; per-competition topics use the competition id.
const GlobalTopic = "competitions"

type Server struct {
	Store  store.Store
	Auth   *auth.Verifier
	Broker EventBroker
	Hooks  *webhooks.Notifier // nil unless WEBHOOK_URL is set
	Cfg    config.Config

	mu  sync.RWMutex
	sim *sim.Simulator
}

// NewServer creates a Server. If DATABASE_URL is unset, uses in-memory store.
func NewServer(cfg config.Config) (*Server, error) {
	dsn := os.Getenv("DATABASE_URL")
	var s store.Store
	if strings.TrimSpace(dsn) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(dsn)
		if err != nil {
			return nil, err
		}
		if os.Getenv("DB_MIGRATE") != "false" {
			if err := sp.Migrate(context.Background()); err != nil {
				return nil, err
			}
		}
		s = sp
	}
	// Broker selection
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
		Store:  s,
		Auth:   auth.NewVerifierFromEnv(),
		Broker: broker,
		Hooks:  webhooks.NewNotifierFromEnv(),
		Cfg:    cfg,
	}, nil
}

// LoadCatalog replaces the active site catalog and rebuilds the optimizer.
func (s *Server) LoadCatalog(sites []model.Site) error {
	cat, err := catalog.New(sites)
	if err != nil {
		return err
	}
	o, err := opt.New(s.Cfg.Optimizer, cat.Zones())
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sim = sim.New(cat, o)
	s.mu.Unlock()
	return nil
}

// simulator returns the active simulator, or one rebuilt with request-level
// config overrides. The catalog itself is shared either way.
func (s *Server) simulator(patch *model.OptimizerConfig) (*sim.Simulator, error) {
	s.mu.RLock()
	cur := s.sim
	s.mu.RUnlock()
	if cur == nil {
		return nil, fmt.Errorf("no catalog loaded")
	}
	if patch == nil {
		return cur, nil
	}
	o, err := opt.New(s.Cfg.Optimizer.WithOverrides(patch), cur.Catalog().Zones())
	if err != nil {
		return nil, err
	}
	return sim.New(cur.Catalog(), o), nil
}
