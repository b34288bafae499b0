package assign

import (
	"fmt"

	"github.com/signalsfoundry/beam-assigner/core"
	"github.com/signalsfoundry/beam-assigner/model"
)

const leoAltitudeKm = 550.0

func geodetic(latDeg, lonDeg, altKm float64) core.Vec3 {
	return core.FromGeodetic(latDeg, lonDeg, altKm)
}

func groundUser(id string, latDeg, lonDeg float64) model.User {
	return model.User{ID: model.UserID(id), Position: geodetic(latDeg, lonDeg, 0)}
}

func leoSat(id string, latDeg, lonDeg float64, capacity int) model.Satellite {
	return model.Satellite{
		ID:       model.SatelliteID(id),
		Position: geodetic(latDeg, lonDeg, leoAltitudeKm),
		Capacity: capacity,
	}
}

// userGrid lays users on a square lat/lon grid centred on (0, 0).
func userGrid(halfSpanDeg, stepDeg float64) []model.User {
	var users []model.User
	for lat := -halfSpanDeg; lat <= halfSpanDeg+1e-9; lat += stepDeg {
		for lon := -halfSpanDeg; lon <= halfSpanDeg+1e-9; lon += stepDeg {
			users = append(users, groundUser(fmt.Sprintf("u%03d", len(users)), lat, lon))
		}
	}
	return users
}
