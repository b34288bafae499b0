package assign

import (
	"fmt"

	"github.com/signalsfoundry/beam-assigner/core"
	"github.com/signalsfoundry/beam-assigner/model"
)

// Verify checks the result against the inputs it was solved from: every
// placement references a known user and satellite, is visible, respects
// capacity, and users sharing a (satellite, color) pair are separated by at
// least cfg.SeparationDeg. Load must cover every satellite, and Assignments
// and Unassigned must partition the users.
func (r *Result) Verify(users []model.User, sats []model.Satellite, cfg Config) error {
	if r == nil {
		return fmt.Errorf("%w: nil result", ErrInvariant)
	}

	userPos := make(map[model.UserID]core.Vec3, len(users))
	for _, u := range users {
		userPos[u.ID] = u.Position
	}
	satByID := make(map[model.SatelliteID]model.Satellite, len(sats))
	for _, s := range sats {
		satByID[s.ID] = s
	}

	type slot struct {
		sat   model.SatelliteID
		color model.Color
	}
	rosters := make(map[slot][]model.UserID)
	load := make(map[model.SatelliteID]int, len(sats))

	for uid, p := range r.Assignments {
		upos, ok := userPos[uid]
		if !ok {
			return fmt.Errorf("%w: unknown user %q", ErrInvariant, uid)
		}
		sat, ok := satByID[p.Satellite]
		if !ok {
			return fmt.Errorf("%w: user %q placed on unknown satellite %q", ErrInvariant, uid, p.Satellite)
		}
		if int(p.Color) >= cfg.Colors {
			return fmt.Errorf("%w: user %q has color %s outside a %d-color plan", ErrInvariant, uid, p.Color, cfg.Colors)
		}
		visible, err := core.ServiceAvailable(upos, sat.Position, cfg.VisibilityDeg)
		if err != nil {
			return fmt.Errorf("%w: user %q: %v", ErrInvariant, uid, err)
		}
		if !visible {
			return fmt.Errorf("%w: satellite %q is not visible from user %q", ErrInvariant, p.Satellite, uid)
		}
		load[p.Satellite]++
		k := slot{sat: p.Satellite, color: p.Color}
		rosters[k] = append(rosters[k], uid)
	}

	for id, n := range load {
		if limit := cfg.capacityOf(satByID[id]); n > limit {
			return fmt.Errorf("%w: satellite %q serves %d users, capacity %d", ErrInvariant, id, n, limit)
		}
	}
	for _, sat := range sats {
		n, ok := r.Load[sat.ID]
		if !ok {
			return fmt.Errorf("%w: no load reported for satellite %q", ErrInvariant, sat.ID)
		}
		if n != load[sat.ID] {
			return fmt.Errorf("%w: satellite %q reports load %d, placements say %d", ErrInvariant, sat.ID, n, load[sat.ID])
		}
	}
	for id := range r.Load {
		if _, ok := satByID[id]; !ok {
			return fmt.Errorf("%w: load reported for unknown satellite %q", ErrInvariant, id)
		}
	}

	for k, members := range rosters {
		satPos := satByID[k.sat].Position
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				angle, err := core.AngleAt(satPos, userPos[members[i]], userPos[members[j]])
				if err != nil {
					return fmt.Errorf("%w: %v", ErrInvariant, err)
				}
				if angle < cfg.SeparationDeg {
					return fmt.Errorf("%w: users %q and %q share %s/%s %.2f° apart",
						ErrInvariant, members[i], members[j], k.sat, k.color, angle)
				}
			}
		}
	}

	unassigned := make(map[model.UserID]struct{}, len(r.Unassigned))
	for _, uid := range r.Unassigned {
		if _, known := userPos[uid]; !known {
			return fmt.Errorf("%w: unknown unassigned user %q", ErrInvariant, uid)
		}
		if _, dup := unassigned[uid]; dup {
			return fmt.Errorf("%w: user %q listed as unassigned twice", ErrInvariant, uid)
		}
		if _, placed := r.Assignments[uid]; placed {
			return fmt.Errorf("%w: user %q is both placed and unassigned", ErrInvariant, uid)
		}
		unassigned[uid] = struct{}{}
	}
	for _, u := range users {
		_, placed := r.Assignments[u.ID]
		_, left := unassigned[u.ID]
		if !placed && !left {
			return fmt.Errorf("%w: user %q is neither placed nor unassigned", ErrInvariant, u.ID)
		}
	}
	return nil
}
