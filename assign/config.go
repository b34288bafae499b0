package assign

import (
	"fmt"

	"github.com/signalsfoundry/beam-assigner/model"
)

// Defaults for the reference four-color plan.
const (
	DefaultCapacity      = 32
	DefaultColors        = 4
	DefaultVisibilityDeg = 45.0
	DefaultSeparationDeg = 10.0
)

// Config holds the solver constants.
type Config struct {
	// Capacity is the per-satellite user limit across all colors. A
	// satellite's own non-zero Capacity takes precedence.
	Capacity int
	// Colors is the size of the color enumeration, at most model.MaxColors.
	Colors int
	// VisibilityDeg is the maximum boresight angle at the origin.
	VisibilityDeg float64
	// SeparationDeg is the minimum at-satellite angle between two users
	// sharing a color.
	SeparationDeg float64
	// Workers bounds the fan-out of candidate enumeration. Values below 1
	// are treated as 1.
	Workers int
}

// DefaultConfig returns the reference constants with sequential enumeration.
func DefaultConfig() Config {
	return Config{
		Capacity:      DefaultCapacity,
		Colors:        DefaultColors,
		VisibilityDeg: DefaultVisibilityDeg,
		SeparationDeg: DefaultSeparationDeg,
		Workers:       1,
	}
}

// Validate checks that the constants describe a usable plan.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	}
	if c.Colors < 1 || c.Colors > model.MaxColors {
		return fmt.Errorf("%w: colors must be in [1, %d], got %d", ErrInvalidConfig, model.MaxColors, c.Colors)
	}
	if c.VisibilityDeg <= 0 || c.VisibilityDeg > 180 {
		return fmt.Errorf("%w: visibility angle must be in (0, 180], got %v", ErrInvalidConfig, c.VisibilityDeg)
	}
	if c.SeparationDeg <= 0 || c.SeparationDeg > 180 {
		return fmt.Errorf("%w: separation angle must be in (0, 180], got %v", ErrInvalidConfig, c.SeparationDeg)
	}
	return nil
}

func (c Config) workers() int {
	if c.Workers < 1 {
		return 1
	}
	return c.Workers
}

// capacityOf resolves the effective capacity of a satellite.
func (c Config) capacityOf(s model.Satellite) int {
	if s.Capacity > 0 {
		return s.Capacity
	}
	return c.Capacity
}
