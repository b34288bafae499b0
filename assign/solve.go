package assign

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/beam-assigner/core"
	"github.com/signalsfoundry/beam-assigner/internal/logging"
	"github.com/signalsfoundry/beam-assigner/model"
)

const tracerName = "github.com/signalsfoundry/beam-assigner/assign"

// MetricsRecorder receives per-solve measurements. The observability
// package's SolverCollector satisfies it.
type MetricsRecorder interface {
	ObserveSolve(d time.Duration, assigned, unassigned int, err error)
	// SetSatelliteLoads replaces the per-satellite load with that of the
	// latest successful solve.
	SetSatelliteLoads(load map[model.SatelliteID]int)
}

// Option configures a single Solve call.
type Option func(*options)

type options struct {
	cfg     Config
	log     logging.Logger
	metrics MetricsRecorder
}

// WithConfig replaces the solver constants.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithWorkers sets the candidate enumeration fan-out.
func WithWorkers(n int) Option {
	return func(o *options) { o.cfg.Workers = n }
}

// WithLogger attaches a logger. Defaults to a no-op logger.
func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(o *options) { o.metrics = m }
}

// Result is the outcome of a solve.
type Result struct {
	// Assignments holds every placed user. Users missing here are unassigned.
	Assignments map[model.UserID]model.Placement
	// Unassigned lists users that could not be placed, in processing order.
	Unassigned []model.UserID
	// Load is the number of users placed on each satellite.
	Load map[model.SatelliteID]int
}

// solveState is owned by a single Solve call.
type solveState struct {
	cfg        Config
	users      []model.User
	sats       []model.Satellite
	capacity   []int
	remaining  []int
	rosters    *Rosters
	candidates [][]int
}

// Solve assigns users to satellites and colors. Users are processed in
// ascending order of visible-satellite count; ties keep input order. The
// call either returns a complete result or an error, never a partial one.
func Solve(ctx context.Context, users []model.User, sats []model.Satellite, opts ...Option) (*Result, error) {
	o := options{cfg: DefaultConfig(), log: logging.Noop()}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "assign.Solve", trace.WithAttributes(
		attribute.Int("assign.users", len(users)),
		attribute.Int("assign.satellites", len(sats)),
		attribute.Int("assign.colors", o.cfg.Colors),
	))
	defer span.End()

	start := time.Now()
	res, err := solve(ctx, users, sats, o)
	if o.metrics != nil {
		assigned, unassigned := 0, len(users)
		if res != nil {
			assigned, unassigned = len(res.Assignments), len(res.Unassigned)
			o.metrics.SetSatelliteLoads(res.Load)
		}
		o.metrics.ObserveSolve(time.Since(start), assigned, unassigned, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.log.Warn(ctx, "solve failed", logging.Err(err))
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("assign.assigned", len(res.Assignments)),
		attribute.Int("assign.unassigned", len(res.Unassigned)),
	)
	o.log.Info(ctx, "solve complete",
		logging.Int("users", len(users)),
		logging.Int("satellites", len(sats)),
		logging.Int("assigned", len(res.Assignments)),
		logging.Int("unassigned", len(res.Unassigned)),
		logging.String("duration", time.Since(start).String()),
	)
	return res, nil
}

// SolveMap is Solve for keyed positions. Entries are ordered by ID so that
// identical maps always produce identical results; satellites take the
// configured default capacity.
func SolveMap(ctx context.Context, users map[model.UserID]core.Vec3, sats map[model.SatelliteID]core.Vec3, opts ...Option) (*Result, error) {
	us := make([]model.User, 0, len(users))
	for id, pos := range users {
		us = append(us, model.User{ID: id, Position: pos})
	}
	sort.Slice(us, func(i, j int) bool { return us[i].ID < us[j].ID })

	ss := make([]model.Satellite, 0, len(sats))
	for id, pos := range sats {
		ss = append(ss, model.Satellite{ID: id, Position: pos})
	}
	sort.Slice(ss, func(i, j int) bool { return ss[i].ID < ss[j].ID })

	return Solve(ctx, us, ss, opts...)
}

func solve(ctx context.Context, users []model.User, sats []model.Satellite, o options) (*Result, error) {
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateInputs(users, sats); err != nil {
		return nil, err
	}

	st := &solveState{
		cfg:        o.cfg,
		users:      users,
		sats:       sats,
		capacity:   make([]int, len(sats)),
		remaining:  make([]int, len(sats)),
		rosters:    NewRosters(len(sats), o.cfg.Colors),
		candidates: make([][]int, len(users)),
	}
	for s, sat := range sats {
		st.capacity[s] = o.cfg.capacityOf(sat)
		st.remaining[s] = st.capacity[s]
	}

	if err := st.enumerate(ctx); err != nil {
		return nil, err
	}
	order := st.order()

	res := &Result{
		Assignments: make(map[model.UserID]model.Placement, len(users)),
		Load:        make(map[model.SatelliteID]int, len(sats)),
	}
	for _, u := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		placement, ok, err := st.place(u)
		if err != nil {
			return nil, err
		}
		if !ok {
			res.Unassigned = append(res.Unassigned, users[u].ID)
			o.log.Debug(ctx, "user unassigned",
				logging.String("user", string(users[u].ID)),
				logging.Int("candidates", len(st.candidates[u])),
			)
			continue
		}
		res.Assignments[users[u].ID] = placement
	}

	for s, sat := range sats {
		res.Load[sat.ID] = st.capacity[s] - st.remaining[s]
	}
	return res, nil
}

// enumerate fills candidates[u] with the satellites visible from u that
// have capacity left. It runs before any placement, so capacity here is
// always the full capacity.
func (st *solveState) enumerate(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(st.cfg.workers())

	for u := range st.users {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var list []int
			for s := range st.sats {
				visible, err := core.ServiceAvailable(st.users[u].Position, st.sats[s].Position, st.cfg.VisibilityDeg)
				if err != nil {
					return fmt.Errorf("user %s, satellite %s: %w", st.users[u].ID, st.sats[s].ID, err)
				}
				if visible && st.remaining[s] > 0 {
					list = append(list, s)
				}
			}
			st.candidates[u] = list
			return nil
		})
	}
	return g.Wait()
}

// order returns user indices sorted by candidate count, ties in input order.
func (st *solveState) order() []int {
	order := make([]int, len(st.users))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return len(st.candidates[order[i]]) < len(st.candidates[order[j]])
	})
	return order
}

// place tries u's candidates in enumeration order against live capacity.
func (st *solveState) place(u int) (model.Placement, bool, error) {
	for _, s := range st.candidates[u] {
		if st.remaining[s] <= 0 {
			continue
		}
		color, ok, err := AssignColor(u, st.users, s, st.sats, st.rosters, st.cfg.SeparationDeg)
		if err != nil {
			return model.Placement{}, false, err
		}
		if !ok {
			continue
		}
		st.remaining[s]--
		return model.Placement{Satellite: st.sats[s].ID, Color: color}, true, nil
	}
	return model.Placement{}, false, nil
}

func validateInputs(users []model.User, sats []model.Satellite) error {
	seenUsers := make(map[model.UserID]struct{}, len(users))
	for i, u := range users {
		if strings.TrimSpace(string(u.ID)) == "" {
			return fmt.Errorf("%w: user at index %d has empty id", ErrInvalidInput, i)
		}
		if _, dup := seenUsers[u.ID]; dup {
			return fmt.Errorf("%w: duplicate user id %q", ErrInvalidInput, u.ID)
		}
		if !u.Position.IsFinite() {
			return fmt.Errorf("%w: user %q has non-finite position", ErrInvalidInput, u.ID)
		}
		seenUsers[u.ID] = struct{}{}
	}

	seenSats := make(map[model.SatelliteID]struct{}, len(sats))
	for i, s := range sats {
		if strings.TrimSpace(string(s.ID)) == "" {
			return fmt.Errorf("%w: satellite at index %d has empty id", ErrInvalidInput, i)
		}
		if _, dup := seenSats[s.ID]; dup {
			return fmt.Errorf("%w: duplicate satellite id %q", ErrInvalidInput, s.ID)
		}
		if s.Capacity < 0 {
			return fmt.Errorf("%w: satellite %q has negative capacity %d", ErrInvalidInput, s.ID, s.Capacity)
		}
		if !s.Position.IsFinite() {
			return fmt.Errorf("%w: satellite %q has non-finite position", ErrInvalidInput, s.ID)
		}
		seenSats[s.ID] = struct{}{}
	}
	return nil
}
