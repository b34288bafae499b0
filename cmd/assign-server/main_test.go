package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/beam-assigner/internal/logging"
	"github.com/signalsfoundry/beam-assigner/internal/nbi"
)

const catalogScenario = `
solver: {colors: 1}
users:
  - {id: a, geodetic: {lat: 0, lon: 0}}
  - {id: b, geodetic: {lat: 0, lon: 0.001}}
satellites:
  - {id: s1, geodetic: {lat: 0, lon: 0, alt_km: 550}}
`

func TestAssignServerStartupSmoke(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(catalogScenario), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}

	reg := prometheus.NewRegistry()
	cfg := Config{
		ListenAddress: lis.Addr().String(),
		ScenarioPath:  path,
		Registry:      reg,
	}
	log := logging.New(logging.Config{Level: "warn", Format: "text"})

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, cfg, log, lis)
	}()

	conn, err := grpc.NewClient(cfg.ListenAddress, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	defer conn.Close()

	client := nbi.NewAssignmentClient(conn)
	resp, err := client.Solve(ctx, &structpb.Struct{}, grpc.WaitForReady(true))
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	got := resp.AsMap()
	if n := len(got["assignments"].([]interface{})); n != 1 {
		t.Fatalf("assignments = %d, want 1 with a single color", n)
	}
	if un := got["unassigned"].([]interface{}); len(un) != 1 || un[0] != "b" {
		t.Fatalf("unassigned = %v, want [b]", un)
	}

	const wantUsers = `
# HELP assign_catalog_users Current number of users in the catalog.
# TYPE assign_catalog_users gauge
assign_catalog_users 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(wantUsers), "assign_catalog_users"); err != nil {
		t.Fatalf("catalog gauge: %v", err)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not exit after cancellation")
	}
}

func TestRunFailsOnBadScenario(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	defer lis.Close()

	cfg := Config{
		ListenAddress: lis.Addr().String(),
		ScenarioPath:  filepath.Join(t.TempDir(), "missing.yaml"),
		Registry:      prometheus.NewRegistry(),
	}
	if err := run(context.Background(), cfg, logging.Noop(), lis); err == nil {
		t.Fatalf("expected error for missing scenario file")
	}
}
