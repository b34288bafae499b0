package core

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used for all simple
// geometry calculations (kilometres).
const EarthRadiusKm = 6371.0

// ErrDegenerateGeometry is returned when an angle is requested for a ray of
// zero length, e.g. a user at the origin or a satellite coincident with a user.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

// Vec3 is an ECEF-style vector in kilometres.
type Vec3 struct {
	X, Y, Z float64
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Norm()
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// IsFinite reports whether every component is a finite number.
func (v Vec3) IsFinite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// AngleBetween returns the angle between two direction vectors in degrees,
// in [0, 180]. A zero-length vector has no direction and yields
// ErrDegenerateGeometry.
func AngleBetween(a, b Vec3) (float64, error) {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0, ErrDegenerateGeometry
	}

	cos := a.Dot(b) / (na * nb)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180.0 / math.Pi, nil
}

// AngleAt returns the angle at vertex between the rays vertex→a and
// vertex→b, in degrees.
func AngleAt(vertex, a, b Vec3) (float64, error) {
	return AngleBetween(a.Sub(vertex), b.Sub(vertex))
}

// ServiceAvailable reports whether a satellite at satPos can serve a user at
// userPos. The angle is measured at the origin between the user's position
// vector and the user→satellite direction, and must not exceed maxDeg.
//
// This approximates "close enough to local zenith" without an explicit
// up-vector per user.
func ServiceAvailable(userPos, satPos Vec3, maxDeg float64) (bool, error) {
	angle, err := AngleBetween(userPos, satPos.Sub(userPos))
	if err != nil {
		return false, fmt.Errorf("visibility of %+v from %+v: %w", satPos, userPos, err)
	}
	return angle <= maxDeg, nil
}

// ElevationDegrees returns the elevation angle of the target as seen from
// the observer, in degrees. 0° = geometric horizon, 90° = overhead.
func ElevationDegrees(observer, target Vec3) float64 {
	// Vector from observer to target.
	v := target.Sub(observer)
	vNorm := v.Norm()
	if vNorm == 0 {
		return 90
	}

	// Local zenith at observer is its normalised position vector.
	r := observer.Norm()
	if r == 0 {
		return 90
	}
	zenith := Vec3{
		X: observer.X / r,
		Y: observer.Y / r,
		Z: observer.Z / r,
	}

	cosGamma := v.Dot(zenith) / vNorm
	if cosGamma > 1 {
		cosGamma = 1
	} else if cosGamma < -1 {
		cosGamma = -1
	}
	gammaDeg := math.Acos(cosGamma) * 180.0 / math.Pi

	// Elevation is measured from local horizon (90° − zenith angle).
	return 90.0 - gammaDeg
}

// FromGeodetic converts latitude and longitude in degrees plus a height
// above the mean sphere into an ECEF vector. The Earth is treated as a
// sphere of EarthRadiusKm.
func FromGeodetic(latDeg, lonDeg, altKm float64) Vec3 {
	lat := latDeg * math.Pi / 180
	lon := lonDeg * math.Pi / 180
	r := EarthRadiusKm + altKm
	return Vec3{
		X: r * math.Cos(lat) * math.Cos(lon),
		Y: r * math.Cos(lat) * math.Sin(lon),
		Z: r * math.Sin(lat),
	}
}
