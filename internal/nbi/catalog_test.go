package nbi

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/beam-assigner/assign"
	"github.com/signalsfoundry/beam-assigner/core"
	"github.com/signalsfoundry/beam-assigner/kb"
	"github.com/signalsfoundry/beam-assigner/model"
)

func TestCatalogRPCs(t *testing.T) {
	catalog := kb.NewCatalog()
	client := startServer(t, NewAssignmentService(catalog, assign.DefaultConfig(), nil, nil))
	ctx := context.Background()

	userPos := core.FromGeodetic(0, 0, 0)
	added, err := client.AddUser(ctx, mustStruct(t, map[string]interface{}{"id": "u1", "position": position(userPos)}))
	if err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	if got := added.AsMap()["id"]; got != "u1" {
		t.Fatalf("AddUser echoed id %v, want u1", got)
	}
	if _, err := client.AddUser(ctx, mustStruct(t, map[string]interface{}{"id": "u1", "position": position(userPos)})); status.Code(err) != codes.AlreadyExists {
		t.Fatalf("duplicate AddUser code = %v, want AlreadyExists", status.Code(err))
	}

	if _, err := client.AddSatellite(ctx, mustStruct(t, map[string]interface{}{
		"id":       "s1",
		"geodetic": map[string]interface{}{"lat": 0, "lon": 0, "alt_km": 550},
		"capacity": 4,
	})); err != nil {
		t.Fatalf("AddSatellite: %v", err)
	}
	if _, err := client.AddSatellite(ctx, mustStruct(t, map[string]interface{}{
		"epoch": "2021-10-02T00:00:00Z",
		"id":    "iss",
		"tle": []interface{}{
			"1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990",
			"2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760",
		},
	})); err != nil {
		t.Fatalf("AddSatellite with TLE: %v", err)
	}

	gotUser, err := client.GetUser(ctx, mustStruct(t, map[string]interface{}{"id": "u1"}))
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	wantUser := map[string]interface{}{"id": "u1", "position": position(userPos)}
	if diff := cmp.Diff(wantUser, gotUser.AsMap()); diff != "" {
		t.Fatalf("GetUser mismatch (-want +got):\n%s", diff)
	}

	gotSat, err := client.GetSatellite(ctx, mustStruct(t, map[string]interface{}{"id": "s1"}))
	if err != nil {
		t.Fatalf("GetSatellite: %v", err)
	}
	if c := gotSat.AsMap()["capacity"]; c != float64(4) {
		t.Fatalf("GetSatellite capacity = %v, want 4", c)
	}
	if sat, ok := catalog.GetSatellite("iss"); !ok || sat.Position.Norm() < core.EarthRadiusKm {
		t.Fatalf("TLE satellite not propagated into the catalog: %+v, %v", sat, ok)
	}

	if _, err := client.RemoveUser(ctx, mustStruct(t, map[string]interface{}{"id": "u1"})); err != nil {
		t.Fatalf("RemoveUser: %v", err)
	}
	if _, err := client.GetUser(ctx, mustStruct(t, map[string]interface{}{"id": "u1"})); status.Code(err) != codes.NotFound {
		t.Fatalf("GetUser after removal code = %v, want NotFound", status.Code(err))
	}
	if _, err := client.RemoveUser(ctx, mustStruct(t, map[string]interface{}{"id": "u1"})); status.Code(err) != codes.NotFound {
		t.Fatalf("second RemoveUser code = %v, want NotFound", status.Code(err))
	}
	if _, err := client.GetSatellite(ctx, mustStruct(t, map[string]interface{}{"id": "nope"})); status.Code(err) != codes.NotFound {
		t.Fatalf("GetSatellite missing code = %v, want NotFound", status.Code(err))
	}
}

func TestCatalogRPCsRejectBadRequests(t *testing.T) {
	ctx := context.Background()
	client := startServer(t, NewAssignmentService(kb.NewCatalog(), assign.DefaultConfig(), nil, nil))

	tests := []struct {
		name string
		call func() error
	}{
		{"empty user", func() error {
			_, err := client.AddUser(ctx, mustStruct(t, map[string]interface{}{}))
			return err
		}},
		{"user with unknown field", func() error {
			_, err := client.AddUser(ctx, mustStruct(t, map[string]interface{}{"id": "u", "position": position(core.Vec3{X: 1}), "bogus": 1}))
			return err
		}},
		{"satellite tle without epoch", func() error {
			_, err := client.AddSatellite(ctx, mustStruct(t, map[string]interface{}{"id": "s", "tle": []interface{}{"a", "b"}}))
			return err
		}},
		{"lookup without id", func() error {
			_, err := client.GetUser(ctx, mustStruct(t, map[string]interface{}{"name": "u"}))
			return err
		}},
		{"lookup with extra fields", func() error {
			_, err := client.GetSatellite(ctx, mustStruct(t, map[string]interface{}{"id": "s", "more": true}))
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := status.Code(tt.call()); code != codes.InvalidArgument {
				t.Fatalf("code = %v, want InvalidArgument", code)
			}
		})
	}
}

func TestCatalogRPCsWithoutCatalog(t *testing.T) {
	client := startServer(t, NewAssignmentService(nil, assign.DefaultConfig(), nil, nil))
	_, err := client.GetUser(context.Background(), mustStruct(t, map[string]interface{}{"id": "u"}))
	if code := status.Code(err); code != codes.FailedPrecondition {
		t.Fatalf("code = %v, want FailedPrecondition", code)
	}
}

func TestSolveRequestAndResponseRoundTrip(t *testing.T) {
	users := []model.User{
		{ID: "u2", Position: core.FromGeodetic(0, 0.001, 0)},
		{ID: "u1", Position: core.FromGeodetic(0, 0, 0)},
	}
	sats := []model.Satellite{{ID: "s1", Position: core.FromGeodetic(0, 0, 550), Capacity: 3}}
	cfg := assign.DefaultConfig()
	cfg.Colors = 1

	req, err := EncodeSolveRequest(users, sats, cfg)
	if err != nil {
		t.Fatalf("EncodeSolveRequest: %v", err)
	}
	sc, inline, err := DecodeSolveRequest(req, assign.DefaultConfig())
	if err != nil {
		t.Fatalf("DecodeSolveRequest: %v", err)
	}
	if !inline {
		t.Fatalf("encoded request should be solved inline")
	}
	if diff := cmp.Diff(users, sc.Users, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("users mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(sats, sc.Satellites, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("satellites mismatch (-want +got):\n%s", diff)
	}
	if sc.Config.Colors != 1 {
		t.Fatalf("decoded colors = %d, want 1", sc.Config.Colors)
	}

	res, err := assign.Solve(context.Background(), sc.Users, sc.Satellites, assign.WithConfig(sc.Config))
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	resp, err := EncodeSolveResponse(res)
	if err != nil {
		t.Fatalf("EncodeSolveResponse: %v", err)
	}
	got, err := DecodeSolveResponse(resp)
	if err != nil {
		t.Fatalf("DecodeSolveResponse: %v", err)
	}
	if diff := cmp.Diff(res, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeSolveResponseRejectsBadColor(t *testing.T) {
	resp := mustStruct(t, map[string]interface{}{
		"assignments": []interface{}{
			map[string]interface{}{"user": "u1", "satellite": "s1", "color": "?"},
		},
	})
	if _, err := DecodeSolveResponse(resp); err == nil {
		t.Fatalf("expected an error for an unknown color")
	}
}
