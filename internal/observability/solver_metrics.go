package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/beam-assigner/model"
)

// SolverCollector exposes assignment solver metrics. It satisfies
// assign.MetricsRecorder.
type SolverCollector struct {
	gatherer prometheus.Gatherer
	loadMu   sync.Mutex

	SolveDuration   prometheus.Histogram
	Solves          *prometheus.CounterVec
	UsersAssigned   prometheus.Counter
	UsersUnassigned prometheus.Counter
	SatelliteLoad   *prometheus.GaugeVec
}

// NewSolverCollector registers solver metrics against the provided registerer.
func NewSolverCollector(reg prometheus.Registerer) (*SolverCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := gathererFor(reg)

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "assign_solve_duration_seconds",
		Help:    "Duration of assignment solves.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
	})
	duration, err := registerHistogram(reg, duration, "assign_solve_duration_seconds")
	if err != nil {
		return nil, err
	}

	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assign_solves_total",
		Help: "Number of solves, labeled by outcome (ok or error).",
	}, []string{"outcome"})
	solves, err = registerCounterVec(reg, solves, "assign_solves_total")
	if err != nil {
		return nil, err
	}

	assigned, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assign_users_assigned_total",
		Help: "Cumulative number of users placed on a satellite.",
	}), "assign_users_assigned_total")
	if err != nil {
		return nil, err
	}

	unassigned, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assign_users_unassigned_total",
		Help: "Cumulative number of users left without a satellite.",
	}), "assign_users_unassigned_total")
	if err != nil {
		return nil, err
	}

	load := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "assign_satellite_load",
		Help: "Users placed on each satellite by the most recent solve.",
	}, []string{"satellite"})
	load, err = registerGaugeVec(reg, load, "assign_satellite_load")
	if err != nil {
		return nil, err
	}

	return &SolverCollector{
		gatherer:        gatherer,
		SolveDuration:   duration,
		Solves:          solves,
		UsersAssigned:   assigned,
		UsersUnassigned: unassigned,
		SatelliteLoad:   load,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SolverCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveSolve records the duration and outcome of one solve. Failed solves
// only count towards the error outcome.
func (c *SolverCollector) ObserveSolve(d time.Duration, assigned, unassigned int, err error) {
	if c == nil {
		return
	}
	if c.SolveDuration != nil {
		c.SolveDuration.Observe(d.Seconds())
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	if c.Solves != nil {
		c.Solves.WithLabelValues(outcome).Inc()
	}
	if err != nil {
		return
	}
	if c.UsersAssigned != nil {
		c.UsersAssigned.Add(float64(assigned))
	}
	if c.UsersUnassigned != nil {
		c.UsersUnassigned.Add(float64(unassigned))
	}
}

// SetSatelliteLoads replaces every load series with the given solve's
// satellites, so satellites absent from it stop being exported.
func (c *SolverCollector) SetSatelliteLoads(load map[model.SatelliteID]int) {
	if c == nil || c.SatelliteLoad == nil {
		return
	}
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	c.SatelliteLoad.Reset()
	for sat, n := range load {
		c.SatelliteLoad.WithLabelValues(string(sat)).Set(float64(n))
	}
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
