package assign

import (
	"errors"
	"testing"

	"github.com/signalsfoundry/beam-assigner/model"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero capacity", func(c *Config) { c.Capacity = 0 }, true},
		{"no colors", func(c *Config) { c.Colors = 0 }, true},
		{"too many colors", func(c *Config) { c.Colors = model.MaxColors + 1 }, true},
		{"max colors", func(c *Config) { c.Colors = model.MaxColors }, false},
		{"zero visibility", func(c *Config) { c.VisibilityDeg = 0 }, true},
		{"visibility past 180", func(c *Config) { c.VisibilityDeg = 181 }, true},
		{"negative separation", func(c *Config) { c.SeparationDeg = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCapacityOf(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.capacityOf(model.Satellite{ID: "s"}); got != DefaultCapacity {
		t.Fatalf("default capacity = %d, want %d", got, DefaultCapacity)
	}
	if got := cfg.capacityOf(model.Satellite{ID: "s", Capacity: 3}); got != 3 {
		t.Fatalf("override capacity = %d, want 3", got)
	}
}

func TestWorkersFloor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = -3
	if got := cfg.workers(); got != 1 {
		t.Fatalf("workers = %d, want 1", got)
	}
}
