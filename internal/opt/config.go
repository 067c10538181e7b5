package opt

import (
	"errors"
	"fmt"

	"fieldnav/internal/model"
)

var ErrBadConfig = errors.New("invalid optimizer config")

// Config bounds a daily patrol and tunes the genetic search.
type Config struct {
	MaxTimeMinutes  float64 `yaml:"maxTimeMinutes"`
	MaxStops        int     `yaml:"maxStops"`
	DwellMinutes    float64 `yaml:"dwellMinutes"`
	WalkingSpeedKmh float64 `yaml:"walkingSpeedKmh"`
	PopulationSize  int     `yaml:"populationSize"`
	Generations     int     `yaml:"generations"`
	MutationRate    float64 `yaml:"mutationRate"`
	EliteFraction   float64 `yaml:"eliteFraction"`
}

// DefaultConfig mirrors the operational defaults: a 3-hour day, at most 8
// stops, 5 minutes per stop, walking pace.
func DefaultConfig() Config {
	return Config{
		MaxTimeMinutes:  180,
		MaxStops:        8,
		DwellMinutes:    5,
		WalkingSpeedKmh: 5.0,
		PopulationSize:  50,
		Generations:     100,
		MutationRate:    0.1,
		EliteFraction:   0.25,
	}
}

// Validate rejects configurations before any search runs.
func (c Config) Validate() error {
	if c.MaxTimeMinutes <= 0 {
		return fmt.Errorf("maxTimeMinutes must be > 0: %w", ErrBadConfig)
	}
	if c.MaxStops <= 0 {
		return fmt.Errorf("maxStops must be > 0: %w", ErrBadConfig)
	}
	if c.DwellMinutes < 0 {
		return fmt.Errorf("dwellMinutes must be >= 0: %w", ErrBadConfig)
	}
	if c.WalkingSpeedKmh <= 0 {
		return fmt.Errorf("walkingSpeedKmh must be > 0: %w", ErrBadConfig)
	}
	if c.PopulationSize <= 0 {
		return fmt.Errorf("populationSize must be > 0: %w", ErrBadConfig)
	}
	if c.Generations <= 0 {
		return fmt.Errorf("generations must be > 0: %w", ErrBadConfig)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("mutationRate must be in [0,1]: %w", ErrBadConfig)
	}
	if c.EliteFraction <= 0 || c.EliteFraction > 1 {
		return fmt.Errorf("eliteFraction must be in (0,1]: %w", ErrBadConfig)
	}
	return nil
}

// WithOverrides applies a request-level patch on top of c.
func (c Config) WithOverrides(p *model.OptimizerConfig) Config {
	if p == nil {
		return c
	}
	if p.MaxTimeMinutes != nil {
		c.MaxTimeMinutes = *p.MaxTimeMinutes
	}
	if p.MaxStops != nil {
		c.MaxStops = *p.MaxStops
	}
	if p.DwellMinutes != nil {
		c.DwellMinutes = *p.DwellMinutes
	}
	if p.WalkingSpeedKmh != nil {
		c.WalkingSpeedKmh = *p.WalkingSpeedKmh
	}
	if p.PopulationSize != nil {
		c.PopulationSize = *p.PopulationSize
	}
	if p.Generations != nil {
		c.Generations = *p.Generations
	}
	if p.MutationRate != nil {
		c.MutationRate = *p.MutationRate
	}
	if p.EliteFraction != nil {
		c.EliteFraction = *p.EliteFraction
	}
	return c
}
