// Command assigner solves a beam assignment scenario file and prints the
// resulting user placements.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/signalsfoundry/beam-assigner/assign"
	"github.com/signalsfoundry/beam-assigner/core"
	"github.com/signalsfoundry/beam-assigner/internal/logging"
	"github.com/signalsfoundry/beam-assigner/internal/nbi"
	"github.com/signalsfoundry/beam-assigner/internal/observability"
	"github.com/signalsfoundry/beam-assigner/internal/scenario"
	"github.com/signalsfoundry/beam-assigner/model"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, logging.NewFromEnv()))
}

// options holds parsed command-line flags.
type options struct {
	scenarioPath string
	server       string
	format       string
	verify       bool
	cfg          assign.Config
	set          map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("assigner", flag.ContinueOnError)
	fs.SetOutput(stderr)

	def := assign.DefaultConfig()
	opts := &options{}
	fs.StringVar(&opts.scenarioPath, "scenario", "", "path to a YAML or JSON scenario file (required)")
	fs.StringVar(&opts.server, "server", "", "solve on an assign-server at this gRPC address instead of in process")
	fs.StringVar(&opts.format, "format", "text", "output format: text or json")
	fs.BoolVar(&opts.verify, "verify", false, "re-check capacity, visibility and separation on the result")
	fs.IntVar(&opts.cfg.Capacity, "capacity", def.Capacity, "default per-satellite capacity")
	fs.IntVar(&opts.cfg.Colors, "colors", def.Colors, "number of colors per satellite")
	fs.Float64Var(&opts.cfg.VisibilityDeg, "visibility-deg", def.VisibilityDeg, "maximum boresight angle in degrees")
	fs.Float64Var(&opts.cfg.SeparationDeg, "separation-deg", def.SeparationDeg, "minimum same-color separation in degrees")
	fs.IntVar(&opts.cfg.Workers, "workers", def.Workers, "parallelism for candidate enumeration")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.scenarioPath == "" {
		return nil, errors.New("-scenario is required")
	}
	if opts.format != "text" && opts.format != "json" {
		return nil, fmt.Errorf("unknown -format %q", opts.format)
	}

	opts.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// solverConfig layers explicitly set flags over the scenario's settings.
func (o *options) solverConfig(fromFile assign.Config) assign.Config {
	cfg := fromFile
	if o.set["capacity"] {
		cfg.Capacity = o.cfg.Capacity
	}
	if o.set["colors"] {
		cfg.Colors = o.cfg.Colors
	}
	if o.set["visibility-deg"] {
		cfg.VisibilityDeg = o.cfg.VisibilityDeg
	}
	if o.set["separation-deg"] {
		cfg.SeparationDeg = o.cfg.SeparationDeg
	}
	if o.set["workers"] {
		cfg.Workers = o.cfg.Workers
	}
	return cfg
}

func run(ctx context.Context, args []string, stdout io.Writer, log logging.Logger) int {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		log.Error(ctx, "invalid arguments", logging.Err(err))
		return 2
	}

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv("ASSIGNER", "assigner"), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		return 1
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	sc, err := scenario.LoadFile(opts.scenarioPath, assign.DefaultConfig())
	if err != nil {
		log.Error(ctx, "failed to load scenario", logging.String("path", opts.scenarioPath), logging.Err(err))
		return 1
	}
	cfg := opts.solverConfig(sc.Config)
	log.Info(ctx, "loaded scenario",
		logging.String("path", opts.scenarioPath),
		logging.Int("users", len(sc.Users)),
		logging.Int("satellites", len(sc.Satellites)),
	)

	res, err := solve(ctx, opts.server, sc, cfg, log)
	if err != nil {
		log.Error(ctx, "solve failed", logging.Err(err))
		return 1
	}
	if opts.verify {
		if err := res.Verify(sc.Users, sc.Satellites, cfg); err != nil {
			log.Error(ctx, "result failed verification", logging.Err(err))
			return 1
		}
		log.Info(ctx, "result verified")
	}

	rows := buildRows(sc, res)
	switch opts.format {
	case "json":
		err = writeJSON(stdout, rows, res)
	default:
		err = writeText(stdout, rows, res)
	}
	if err != nil {
		log.Error(ctx, "failed to write output", logging.Err(err))
		return 1
	}
	return 0
}

// solve runs in process, or on the server at addr when one is given.
func solve(ctx context.Context, addr string, sc *scenario.Scenario, cfg assign.Config, log logging.Logger) (*assign.Result, error) {
	if addr == "" {
		return assign.Solve(ctx, sc.Users, sc.Satellites, assign.WithConfig(cfg), assign.WithLogger(log))
	}

	req, err := nbi.EncodeSolveRequest(sc.Users, sc.Satellites, cfg)
	if err != nil {
		return nil, err
	}
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	log.Info(ctx, "solving remotely", logging.String("server", addr))
	resp, err := nbi.NewAssignmentClient(conn).Solve(ctx, req)
	if err != nil {
		return nil, err
	}
	return nbi.DecodeSolveResponse(resp)
}

type placementRow struct {
	User         string  `json:"user"`
	Satellite    string  `json:"satellite"`
	Color        string  `json:"color"`
	ElevationDeg float64 `json:"elevation_deg"`
	RangeKm      float64 `json:"range_km"`
}

func buildRows(sc *scenario.Scenario, res *assign.Result) []placementRow {
	satPos := make(map[model.SatelliteID]core.Vec3, len(sc.Satellites))
	for _, s := range sc.Satellites {
		satPos[s.ID] = s.Position
	}

	rows := make([]placementRow, 0, len(res.Assignments))
	for _, u := range sc.Users {
		p, ok := res.Assignments[u.ID]
		if !ok {
			continue
		}
		pos := satPos[p.Satellite]
		rows = append(rows, placementRow{
			User:         string(u.ID),
			Satellite:    string(p.Satellite),
			Color:        p.Color.String(),
			ElevationDeg: core.ElevationDegrees(u.Position, pos),
			RangeKm:      u.Position.DistanceTo(pos),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].User < rows[j].User })
	return rows
}

func writeJSON(w io.Writer, rows []placementRow, res *assign.Result) error {
	unassigned := make([]string, 0, len(res.Unassigned))
	for _, id := range res.Unassigned {
		unassigned = append(unassigned, string(id))
	}
	load := make(map[string]int, len(res.Load))
	for id, n := range res.Load {
		load[string(id)] = n
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Assignments []placementRow `json:"assignments"`
		Unassigned  []string       `json:"unassigned"`
		Load        map[string]int `json:"load"`
	}{rows, unassigned, load})
}

func writeText(w io.Writer, rows []placementRow, res *assign.Result) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("USER", "SATELLITE", "COLOR", "ELEVATION", "RANGE KM")
	for _, r := range rows {
		t.Row(r.User, r.Satellite, r.Color,
			strconv.FormatFloat(r.ElevationDeg, 'f', 1, 64),
			strconv.FormatFloat(r.RangeKm, 'f', 0, 64))
	}

	if _, err := fmt.Fprintln(w, t.String()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "assigned %d, unassigned %d\n", len(res.Assignments), len(res.Unassigned)); err != nil {
		return err
	}
	for _, id := range res.Unassigned {
		if _, err := fmt.Fprintf(w, "unassigned: %s\n", id); err != nil {
			return err
		}
	}
	return nil
}
