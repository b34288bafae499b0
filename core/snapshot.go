package core

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// ErrInvalidTLE is returned for two-line element sets that cannot be parsed.
var ErrInvalidTLE = errors.New("invalid TLE")

// tleLineLen is the fixed width of a TLE line, checksum included.
const tleLineLen = 69

// SnapshotTLE propagates a TLE to epoch with SGP4 and returns the satellite's
// ECEF position in kilometres.
//
// go-satellite aborts the process on malformed numeric fields, so the lines
// are checked before they are handed to it.
func SnapshotTLE(line1, line2 string, epoch time.Time) (Vec3, error) {
	if err := validateTLE(line1, line2); err != nil {
		return Vec3{}, err
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)

	epoch = epoch.UTC()
	year, month, day := epoch.Date()
	hour, min, sec := epoch.Clock()

	posECI, _ := satellite.Propagate(sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	posECEF := satellite.ECIToECEF(posECI, gmst)

	pos := Vec3{X: posECEF.X, Y: posECEF.Y, Z: posECEF.Z}
	if !pos.IsFinite() {
		return Vec3{}, fmt.Errorf("%w: propagation to %s diverged", ErrInvalidTLE, epoch.Format(time.RFC3339))
	}
	return pos, nil
}

// tleValue is one numeric field, sliced and squeezed exactly as
// satellite.ParseTLE sees it.
type tleValue struct {
	name string
	text string
}

// squeeze drops at most two spaces, matching go-satellite.
func squeeze(s string) string { return strings.Replace(s, " ", "", 2) }

func validateTLE(line1, line2 string) error {
	line1 = strings.TrimRight(line1, " \r\n")
	line2 = strings.TrimRight(line2, " \r\n")
	if len(line1) < tleLineLen || len(line2) < tleLineLen {
		return fmt.Errorf("%w: lines must be %d characters", ErrInvalidTLE, tleLineLen)
	}
	if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
		return fmt.Errorf("%w: bad line numbers", ErrInvalidTLE)
	}
	if strings.TrimSpace(line1[2:7]) != strings.TrimSpace(line2[2:7]) {
		return fmt.Errorf("%w: catalog numbers differ", ErrInvalidTLE)
	}

	ints := []tleValue{
		{"catalog number", strings.TrimSpace(line1[2:7])},
		{"epoch year", line1[18:20]},
	}
	parsedInts := make([]int64, len(ints))
	for i, v := range ints {
		n, err := strconv.ParseInt(v.text, 10, 0)
		if err != nil {
			return fmt.Errorf("%w: %s %q: %v", ErrInvalidTLE, v.name, v.text, err)
		}
		parsedInts[i] = n
	}

	floats := []tleValue{
		{"epoch day", line1[20:32]},
		{"first derivative of mean motion", squeeze(line1[33:43])},
		{"second derivative of mean motion", squeeze(line1[44:45] + "." + line1[45:50] + "e" + line1[50:52])},
		{"drag term", squeeze(line1[53:54] + "." + line1[54:59] + "e" + line1[59:61])},
		{"inclination", squeeze(line2[8:16])},
		{"right ascension", squeeze(line2[17:25])},
		{"eccentricity", "." + line2[26:33]},
		{"argument of perigee", squeeze(line2[34:42])},
		{"mean anomaly", squeeze(line2[43:51])},
		{"mean motion", squeeze(line2[52:63])},
	}
	parsedFloats := make([]float64, len(floats))
	for i, v := range floats {
		f, err := strconv.ParseFloat(v.text, 64)
		if err != nil {
			return fmt.Errorf("%w: %s %q: %v", ErrInvalidTLE, v.name, v.text, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: %s %q is not finite", ErrInvalidTLE, v.name, v.text)
		}
		parsedFloats[i] = f
	}

	// Day-of-year past the end of the epoch year walks off go-satellite's
	// month table.
	year := parsedInts[1] + 1900
	if parsedInts[1] < 57 {
		year = parsedInts[1] + 2000
	}
	daysInYear := 365.0
	if year%4 == 0 {
		daysInYear = 366
	}
	if day := parsedFloats[0]; day < 0 || math.Floor(day) > daysInYear {
		return fmt.Errorf("%w: epoch day %v outside year %d", ErrInvalidTLE, day, year)
	}
	return nil
}
