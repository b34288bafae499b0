package assign

import (
	"fmt"

	"github.com/signalsfoundry/beam-assigner/core"
	"github.com/signalsfoundry/beam-assigner/model"
)

// Rosters is the per-satellite, per-color arena of placed users. Each
// satellite owns a fixed block of Colors lists; lists hold user indices in
// placement order and are append-only.
type Rosters struct {
	colors int
	lists  [][]int
}

// NewRosters allocates empty rosters for sats satellites.
func NewRosters(sats, colors int) *Rosters {
	return &Rosters{
		colors: colors,
		lists:  make([][]int, sats*colors),
	}
}

// Colors returns the size of the color enumeration.
func (r *Rosters) Colors() int { return r.colors }

// Members returns the users placed on (sat, color). The slice must not be
// modified.
func (r *Rosters) Members(sat int, c model.Color) []int {
	return r.lists[sat*r.colors+int(c)]
}

// Len returns the number of users on sat across all colors.
func (r *Rosters) Len(sat int) int {
	n := 0
	for c := 0; c < r.colors; c++ {
		n += len(r.lists[sat*r.colors+c])
	}
	return n
}

func (r *Rosters) add(sat int, c model.Color, user int) {
	i := sat*r.colors + int(c)
	r.lists[i] = append(r.lists[i], user)
}

// AssignColor places user u on satellite s with the first color, in
// enumeration order, that admits it: either the color's roster is empty or
// every member is at least separationDeg away from u as seen from the
// satellite. On success u is appended to that roster. When no color admits
// u the rosters are left untouched and ok is false.
func AssignColor(u int, users []model.User, s int, sats []model.Satellite, rosters *Rosters, separationDeg float64) (model.Color, bool, error) {
	satPos := sats[s].Position
	userPos := users[u].Position

	for c := 0; c < rosters.colors; c++ {
		color := model.Color(c)
		members := rosters.Members(s, color)
		if len(members) == 0 {
			rosters.add(s, color, u)
			return color, true, nil
		}

		fits := true
		for _, other := range members {
			angle, err := core.AngleAt(satPos, userPos, users[other].Position)
			if err != nil {
				return 0, false, fmt.Errorf("separation of %s and %s at %s: %w",
					users[u].ID, users[other].ID, sats[s].ID, err)
			}
			if angle < separationDeg {
				fits = false
				break
			}
		}
		if fits {
			rosters.add(s, color, u)
			return color, true, nil
		}
	}
	return 0, false, nil
}
