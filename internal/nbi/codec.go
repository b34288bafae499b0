package nbi

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/beam-assigner/assign"
	"github.com/signalsfoundry/beam-assigner/core"
	"github.com/signalsfoundry/beam-assigner/internal/scenario"
	"github.com/signalsfoundry/beam-assigner/model"
)

// ErrInvalidResponse is returned by client-side decoders for responses that
// do not have the documented shape.
var ErrInvalidResponse = errors.New("invalid response")

// DecodeSolveRequest reads a request struct laid out like a scenario file
// (solver, epoch, users, satellites). base supplies solver defaults. The
// second return reports whether the request carried its own users or
// satellites; when it did not, the caller solves its catalog instead.
func DecodeSolveRequest(req *structpb.Struct, base assign.Config) (*scenario.Scenario, bool, error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	_, hasUsers := req.GetFields()["users"]
	_, hasSats := req.GetFields()["satellites"]
	if len(req.GetFields()) == 0 {
		return &scenario.Scenario{Config: base}, false, nil
	}

	doc, err := protojson.Marshal(req)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	sc, err := scenario.Load(bytes.NewReader(doc), base)
	if err != nil {
		return nil, false, err
	}
	return sc, hasUsers || hasSats, nil
}

// EncodeSolveResponse renders a result as
//
//	{"assignments": [{"user", "satellite", "color"}...],
//	 "unassigned": [...], "load": {"<satellite>": n}}
//
// with assignments sorted by user id.
func EncodeSolveResponse(res *assign.Result) (*structpb.Struct, error) {
	ids := make([]string, 0, len(res.Assignments))
	for id := range res.Assignments {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	assignments := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		p := res.Assignments[model.UserID(id)]
		assignments = append(assignments, map[string]interface{}{
			"user":      id,
			"satellite": string(p.Satellite),
			"color":     p.Color.String(),
		})
	}

	unassigned := make([]interface{}, 0, len(res.Unassigned))
	for _, id := range res.Unassigned {
		unassigned = append(unassigned, string(id))
	}

	load := make(map[string]interface{}, len(res.Load))
	for id, n := range res.Load {
		load[string(id)] = float64(n)
	}

	return structpb.NewStruct(map[string]interface{}{
		"assignments": assignments,
		"unassigned":  unassigned,
		"load":        load,
	})
}

// EncodeSolveRequest is the client-side counterpart of DecodeSolveRequest.
// Positions are sent as cartesian kilometres, so TLE satellites travel
// already propagated. Users and satellites are always present, so the
// server never falls back to its catalog.
func EncodeSolveRequest(users []model.User, sats []model.Satellite, cfg assign.Config) (*structpb.Struct, error) {
	us := make([]interface{}, 0, len(users))
	for _, u := range users {
		us = append(us, map[string]interface{}{"id": string(u.ID), "position": positionDoc(u.Position)})
	}
	ss := make([]interface{}, 0, len(sats))
	for _, sat := range sats {
		ss = append(ss, satelliteDoc(sat))
	}
	return structpb.NewStruct(map[string]interface{}{
		"solver": map[string]interface{}{
			"capacity":       float64(cfg.Capacity),
			"colors":         float64(cfg.Colors),
			"visibility_deg": cfg.VisibilityDeg,
			"separation_deg": cfg.SeparationDeg,
		},
		"users":      us,
		"satellites": ss,
	})
}

// DecodeSolveResponse turns an EncodeSolveResponse document back into a
// Result.
func DecodeSolveResponse(resp *structpb.Struct) (*assign.Result, error) {
	fields := resp.GetFields()
	res := &assign.Result{
		Assignments: make(map[model.UserID]model.Placement),
		Load:        make(map[model.SatelliteID]int),
	}

	for i, v := range fields["assignments"].GetListValue().GetValues() {
		entry := v.GetStructValue()
		user, err := stringField(entry, "user")
		if err != nil {
			return nil, fmt.Errorf("assignment %d: %w", i, err)
		}
		sat, err := stringField(entry, "satellite")
		if err != nil {
			return nil, fmt.Errorf("assignment %d: %w", i, err)
		}
		name, err := stringField(entry, "color")
		if err != nil {
			return nil, fmt.Errorf("assignment %d: %w", i, err)
		}
		color, err := model.ParseColor(name)
		if err != nil {
			return nil, fmt.Errorf("%w: assignment %d: %v", ErrInvalidResponse, i, err)
		}
		res.Assignments[model.UserID(user)] = model.Placement{Satellite: model.SatelliteID(sat), Color: color}
	}

	for i, v := range fields["unassigned"].GetListValue().GetValues() {
		id, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%w: unassigned entry %d is not a string", ErrInvalidResponse, i)
		}
		res.Unassigned = append(res.Unassigned, model.UserID(id.StringValue))
	}

	for id, v := range fields["load"].GetStructValue().GetFields() {
		n, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok || n.NumberValue < 0 || n.NumberValue != math.Trunc(n.NumberValue) {
			return nil, fmt.Errorf("%w: load for %q is not a count", ErrInvalidResponse, id)
		}
		res.Load[model.SatelliteID(id)] = int(n.NumberValue)
	}
	return res, nil
}

// DecodeUser reads a single user document: {"id", "position" | "geodetic"}.
func DecodeUser(req *structpb.Struct) (model.User, error) {
	sc, err := decodeEntity(req, "users")
	if err != nil {
		return model.User{}, err
	}
	return sc.Users[0], nil
}

// DecodeSatellite reads a single satellite document. A TLE satellite also
// carries the "epoch" it is propagated to.
func DecodeSatellite(req *structpb.Struct) (model.Satellite, error) {
	sc, err := decodeEntity(req, "satellites")
	if err != nil {
		return model.Satellite{}, err
	}
	return sc.Satellites[0], nil
}

// DecodeID reads an {"id": "..."} lookup request.
func DecodeID(req *structpb.Struct) (string, error) {
	if n := len(req.GetFields()); n != 1 {
		return "", fmt.Errorf("%w: want exactly an id field, got %d fields", ErrInvalidRequest, n)
	}
	id, ok := req.GetFields()["id"].GetKind().(*structpb.Value_StringValue)
	if !ok || id.StringValue == "" {
		return "", fmt.Errorf("%w: id must be a non-empty string", ErrInvalidRequest)
	}
	return id.StringValue, nil
}

// EncodeUser renders a catalog user with a cartesian position.
func EncodeUser(u model.User) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"id":       string(u.ID),
		"position": positionDoc(u.Position),
	})
}

// EncodeSatellite renders a catalog satellite with a cartesian position.
func EncodeSatellite(s model.Satellite) (*structpb.Struct, error) {
	return structpb.NewStruct(satelliteDoc(s))
}

// decodeEntity wraps one entity document into a scenario under key and
// loads it, so entities are validated exactly like scenario files.
func decodeEntity(req *structpb.Struct, key string) (*scenario.Scenario, error) {
	if len(req.GetFields()) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidRequest)
	}

	entity := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(req.GetFields()))}
	doc := &structpb.Struct{Fields: make(map[string]*structpb.Value, 2)}
	for k, v := range req.GetFields() {
		if k == "epoch" && key == "satellites" {
			doc.Fields[k] = v
			continue
		}
		entity.Fields[k] = v
	}
	doc.Fields[key] = structpb.NewListValue(&structpb.ListValue{
		Values: []*structpb.Value{structpb.NewStructValue(entity)},
	})

	raw, err := protojson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return scenario.Load(bytes.NewReader(raw), assign.DefaultConfig())
}

func stringField(s *structpb.Struct, key string) (string, error) {
	v, ok := s.GetFields()[key].GetKind().(*structpb.Value_StringValue)
	if !ok || v.StringValue == "" {
		return "", fmt.Errorf("%w: missing %q", ErrInvalidResponse, key)
	}
	return v.StringValue, nil
}

func positionDoc(v core.Vec3) map[string]interface{} {
	return map[string]interface{}{"x": v.X, "y": v.Y, "z": v.Z}
}

func satelliteDoc(s model.Satellite) map[string]interface{} {
	return map[string]interface{}{
		"id":       string(s.ID),
		"position": positionDoc(s.Position),
		"capacity": float64(s.Capacity),
	}
}
