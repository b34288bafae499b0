// Package scenario reads user and satellite snapshots from YAML or JSON.
package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/beam-assigner/assign"
	"github.com/signalsfoundry/beam-assigner/core"
	"github.com/signalsfoundry/beam-assigner/model"
)

// ErrInvalidScenario is returned for structurally invalid scenario files.
var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario is a loaded snapshot ready to be solved.
type Scenario struct {
	Config     assign.Config
	Epoch      time.Time
	Users      []model.User
	Satellites []model.Satellite
}

// internal file shapes; unexported so the format can evolve.
type scenarioFile struct {
	Solver     *solverFile     `yaml:"solver"`
	Epoch      string          `yaml:"epoch"`
	Users      []userFile      `yaml:"users"`
	Satellites []satelliteFile `yaml:"satellites"`
}

type solverFile struct {
	Capacity      *int     `yaml:"capacity"`
	Colors        *int     `yaml:"colors"`
	VisibilityDeg *float64 `yaml:"visibility_deg"`
	SeparationDeg *float64 `yaml:"separation_deg"`
	Workers       *int     `yaml:"workers"`
}

type positionFile struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

type geodeticFile struct {
	Lat   float64 `yaml:"lat"`
	Lon   float64 `yaml:"lon"`
	AltKm float64 `yaml:"alt_km"`
}

type userFile struct {
	ID       string        `yaml:"id"`
	Position *positionFile `yaml:"position"`
	Geodetic *geodeticFile `yaml:"geodetic"`
}

type satelliteFile struct {
	ID       string        `yaml:"id"`
	Position *positionFile `yaml:"position"`
	Geodetic *geodeticFile `yaml:"geodetic"`
	TLE      []string      `yaml:"tle"`
	Capacity int           `yaml:"capacity"`
}

// LoadFile opens path and calls Load.
func LoadFile(path string, base assign.Config) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario %q: %w", path, err)
	}
	defer f.Close()

	sc, err := Load(f, base)
	if err != nil {
		return nil, fmt.Errorf("load scenario %q: %w", path, err)
	}
	return sc, nil
}

// Load decodes a scenario. Solver settings present in the file override
// base. Satellites given as TLE are propagated to the file's epoch.
// Unknown fields are rejected.
func Load(r io.Reader, base assign.Config) (*Scenario, error) {
	var payload scenarioFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidScenario)
		}
		return nil, fmt.Errorf("%w: decode failed: %v", ErrInvalidScenario, err)
	}

	sc := &Scenario{
		Config:     applySolver(base, payload.Solver),
		Users:      make([]model.User, 0, len(payload.Users)),
		Satellites: make([]model.Satellite, 0, len(payload.Satellites)),
	}
	if err := sc.Config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}

	if payload.Epoch != "" {
		epoch, err := time.Parse(time.RFC3339, strings.TrimSpace(payload.Epoch))
		if err != nil {
			return nil, fmt.Errorf("%w: epoch: %v", ErrInvalidScenario, err)
		}
		sc.Epoch = epoch.UTC()
	}

	for i, u := range payload.Users {
		if strings.TrimSpace(u.ID) == "" {
			return nil, fmt.Errorf("%w: user %d has empty id", ErrInvalidScenario, i)
		}
		pos, err := resolvePosition(u.Position, u.Geodetic)
		if err != nil {
			return nil, fmt.Errorf("%w: user %q: %v", ErrInvalidScenario, u.ID, err)
		}
		sc.Users = append(sc.Users, model.User{ID: model.UserID(u.ID), Position: pos})
	}

	for i, s := range payload.Satellites {
		if strings.TrimSpace(s.ID) == "" {
			return nil, fmt.Errorf("%w: satellite %d has empty id", ErrInvalidScenario, i)
		}
		if s.Capacity < 0 {
			return nil, fmt.Errorf("%w: satellite %q: negative capacity", ErrInvalidScenario, s.ID)
		}
		pos, err := sc.satellitePosition(s)
		if err != nil {
			return nil, fmt.Errorf("%w: satellite %q: %v", ErrInvalidScenario, s.ID, err)
		}
		sc.Satellites = append(sc.Satellites, model.Satellite{
			ID:       model.SatelliteID(s.ID),
			Position: pos,
			Capacity: s.Capacity,
		})
	}

	return sc, nil
}

func (sc *Scenario) satellitePosition(s satelliteFile) (core.Vec3, error) {
	if len(s.TLE) == 0 {
		return resolvePosition(s.Position, s.Geodetic)
	}
	if s.Position != nil || s.Geodetic != nil {
		return core.Vec3{}, errors.New("tle cannot be combined with position or geodetic")
	}
	if len(s.TLE) != 2 {
		return core.Vec3{}, fmt.Errorf("tle needs exactly 2 lines, got %d", len(s.TLE))
	}
	if sc.Epoch.IsZero() {
		return core.Vec3{}, errors.New("tle satellites need a scenario epoch")
	}
	return core.SnapshotTLE(s.TLE[0], s.TLE[1], sc.Epoch)
}

func resolvePosition(pos *positionFile, geo *geodeticFile) (core.Vec3, error) {
	switch {
	case pos != nil && geo != nil:
		return core.Vec3{}, errors.New("position and geodetic are mutually exclusive")
	case pos != nil:
		return core.Vec3{X: pos.X, Y: pos.Y, Z: pos.Z}, nil
	case geo != nil:
		if geo.Lat < -90 || geo.Lat > 90 {
			return core.Vec3{}, fmt.Errorf("latitude %v out of range", geo.Lat)
		}
		return core.FromGeodetic(geo.Lat, geo.Lon, geo.AltKm), nil
	default:
		return core.Vec3{}, errors.New("position or geodetic is required")
	}
}

func applySolver(cfg assign.Config, s *solverFile) assign.Config {
	if s == nil {
		return cfg
	}
	if s.Capacity != nil {
		cfg.Capacity = *s.Capacity
	}
	if s.Colors != nil {
		cfg.Colors = *s.Colors
	}
	if s.VisibilityDeg != nil {
		cfg.VisibilityDeg = *s.VisibilityDeg
	}
	if s.SeparationDeg != nil {
		cfg.SeparationDeg = *s.SeparationDeg
	}
	if s.Workers != nil {
		cfg.Workers = *s.Workers
	}
	return cfg
}
