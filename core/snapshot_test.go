package core

import (
	"errors"
	"testing"
	"time"
)

// ISS sample TLE.
const (
	issLine1 = "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990"
	issLine2 = "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760"
)

// We don't assert exact orbital values (those belong to go-satellite);
// we check the snapshot lands in LEO and moves between epochs.
func TestSnapshotTLE_LowEarthOrbit(t *testing.T) {
	t1 := time.Date(2021, 10, 2, 0, 0, 0, 0, time.UTC)

	first, err := SnapshotTLE(issLine1, issLine2, t1)
	if err != nil {
		t.Fatalf("SnapshotTLE: %v", err)
	}
	alt := first.Norm() - EarthRadiusKm
	if alt < 300 || alt > 500 {
		t.Fatalf("ISS altitude = %.1f km, want within LEO band", alt)
	}

	second, err := SnapshotTLE(issLine1, issLine2, t1.Add(5*time.Minute))
	if err != nil {
		t.Fatalf("SnapshotTLE: %v", err)
	}
	if first == second {
		t.Fatalf("expected position to change over time, got %+v at both epochs", first)
	}
}

func TestSnapshotTLE_RejectsMalformedLines(t *testing.T) {
	epoch := time.Date(2021, 10, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		line1, line2 string
	}{
		{"too short", "1 25544U", issLine2},
		{"swapped", issLine2, issLine1},
		{"catalog mismatch", issLine1, "2 99999" + issLine2[7:]},
		{"garbage inclination", issLine1, issLine2[:8] + "  xx.xxx" + issLine2[16:]},
		{"inclination with three leading spaces", issLine1, issLine2[:8] + "   5.645" + issLine2[16:]},
		{"eccentricity with leading space", issLine1, issLine2[:26] + " 001817" + issLine2[33:]},
		{"non-numeric catalog number", "1 2554AU" + issLine1[8:], "2 2554A" + issLine2[7:]},
		{"non-numeric epoch year", issLine1[:18] + "2x" + issLine1[20:], issLine2},
		{"padded epoch year", issLine1[:18] + " 1" + issLine1[20:], issLine2},
		{"epoch day past year end", issLine1[:20] + "400.00000000" + issLine1[32:], issLine2},
		{"garbage first derivative", issLine1[:33] + " .0000x204" + issLine1[43:], issLine2},
		{"garbage second derivative", issLine1[:44] + " 00a00-0" + issLine1[52:], issLine2},
		{"garbage drag term", issLine1[:53] + " XXXXX-4" + issLine1[61:], issLine2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SnapshotTLE(tt.line1, tt.line2, epoch); !errors.Is(err, ErrInvalidTLE) {
				t.Fatalf("expected ErrInvalidTLE, got %v", err)
			}
		})
	}
}

func TestSnapshotTLE_AcceptsSignedFields(t *testing.T) {
	epoch := time.Date(2021, 10, 2, 0, 0, 0, 0, time.UTC)
	line1 := issLine1[:33] + "-.00000204" + issLine1[43:53] + "-10270-4" + issLine1[61:]
	if _, err := SnapshotTLE(line1, issLine2, epoch); err != nil {
		t.Fatalf("SnapshotTLE with negative drag terms: %v", err)
	}
}
