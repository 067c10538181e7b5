// Package opt implements the patrol route search engine: greedy construction,
// exhaustive enumeration, and a seeded genetic search over zone-scoped
// candidate pools.
package opt

import (
	"fmt"
	"math/rand"
	"time"

	"fieldnav/internal/catalog"
	"fieldnav/internal/model"
)

// Strategy selects one of the interchangeable search strategies.
type Strategy string

const (
	StrategyGreedy     Strategy = "greedy"
	StrategyGenetic    Strategy = "genetic"
	StrategyExhaustive Strategy = "exhaustive"
	StrategyRandom     Strategy = "random"
	StrategyHighValue  Strategy = "high_value"
)

// ParseStrategy validates a request-supplied strategy name. Empty defaults
// to greedy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "":
		return StrategyGreedy, nil
	case StrategyGreedy, StrategyGenetic, StrategyExhaustive, StrategyRandom, StrategyHighValue:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown strategy: %q (allowed: greedy,genetic,exhaustive,random,high_value)", s)
}

// Optimizer runs searches against a fixed catalog zone index. All methods are
// pure over the read-only index, so one Optimizer serves concurrent callers.
type Optimizer struct {
	cfg   Config
	eval  Evaluator
	zones *catalog.ZoneIndex
}

func New(cfg Config, zones *catalog.ZoneIndex) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Optimizer{cfg: cfg, eval: NewEvaluator(cfg), zones: zones}, nil
}

func (o *Optimizer) Config() Config       { return o.cfg }
func (o *Optimizer) Evaluator() Evaluator { return o.eval }

// Candidates returns the same-zone pool for a starting site, excluding the
// start itself.
func (o *Optimizer) Candidates(start model.Site) []model.Site {
	return o.zones.Candidates(start.Zone, start.ID)
}

// Optimize dispatches to the chosen strategy. Seed 0 derives a seed from the
// wall clock; any other value makes randomized strategies reproducible.
// All strategies return an empty route when nothing fits the budget.
func (o *Optimizer) Optimize(start model.Site, strategy Strategy, seed int64) []model.Site {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	switch strategy {
	case StrategyGenetic:
		return o.Genetic(start, rng)
	case StrategyExhaustive:
		return o.Exhaustive(start)
	case StrategyRandom:
		return o.Random(start, rng)
	case StrategyHighValue:
		return o.HighValue(start)
	default:
		return o.Greedy(start)
	}
}
