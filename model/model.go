package model

import (
	"fmt"

	"github.com/signalsfoundry/beam-assigner/core"
)

// UserID identifies a ground user terminal.
type UserID string

// SatelliteID identifies a satellite.
type SatelliteID string

// User is a ground terminal at a fixed ECEF position (km).
type User struct {
	ID       UserID
	Position core.Vec3
}

// Satellite is a serving satellite at a fixed ECEF position (km).
// Capacity of 0 means the solver default applies.
type Satellite struct {
	ID       SatelliteID
	Position core.Vec3
	Capacity int
}

// MaxColors bounds the size of the color enumeration.
const MaxColors = 26

// Color is a frequency/polarization channel label. Colors are enumerated
// from 0; enumeration order is the allocator's first-fit order.
type Color uint8

// Predefined colors for the default four-color plan.
const (
	ColorA Color = iota
	ColorB
	ColorC
	ColorD
)

// String renders colors as letters: A, B, C, ...
func (c Color) String() string {
	if int(c) < MaxColors {
		return string(rune('A' + c))
	}
	return fmt.Sprintf("Color(%d)", uint8(c))
}

// ParseColor is the inverse of Color.String.
func ParseColor(s string) (Color, error) {
	if len(s) == 1 && s[0] >= 'A' && s[0] < 'A'+MaxColors {
		return Color(s[0] - 'A'), nil
	}
	return 0, fmt.Errorf("unknown color %q", s)
}

// Placement is the serving satellite and color chosen for a user.
type Placement struct {
	Satellite SatelliteID
	Color     Color
}
