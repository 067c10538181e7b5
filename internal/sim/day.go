// Package sim drives day simulations and multi-agent competitions on top of
// the optimizer core.
package sim

import (
	"fieldnav/internal/catalog"
	"fieldnav/internal/model"
	"fieldnav/internal/opt"
)

// Simulator binds a loaded catalog to an optimizer. Both are read-only, so a
// single Simulator serves concurrent runs.
type Simulator struct {
	cat *catalog.Catalog
	opt *opt.Optimizer
}

func New(cat *catalog.Catalog, o *opt.Optimizer) *Simulator {
	return &Simulator{cat: cat, opt: o}
}

func (s *Simulator) Catalog() *catalog.Catalog { return s.cat }
func (s *Simulator) Optimizer() *opt.Optimizer { return s.opt }

// SimulateDay optimizes one day from the given start and packages the result.
// Pure given its inputs and the seed.
func (s *Simulator) SimulateDay(day int, start model.Site, strategy opt.Strategy, seed int64) model.DayResult {
	route := s.opt.Optimize(start, strategy, seed)
	return model.DayResult{
		Day:      day,
		Start:    start,
		Route:    route,
		Metrics:  s.opt.Evaluator().Metrics(start, route),
		Zone:     start.Zone,
		Strategy: string(strategy),
	}
}
