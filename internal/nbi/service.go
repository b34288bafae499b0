package nbi

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/beam-assigner/assign"
	"github.com/signalsfoundry/beam-assigner/internal/logging"
	"github.com/signalsfoundry/beam-assigner/kb"
	"github.com/signalsfoundry/beam-assigner/model"
)

// AssignmentService implements AssignmentServer.
//
// A request that carries users or satellites is solved on its own. An empty
// request, or one with only solver settings, is solved against a snapshot of
// the catalog. The catalog methods edit and read that catalog.
type AssignmentService struct {
	catalog *kb.Catalog
	base    assign.Config
	log     logging.Logger
	metrics assign.MetricsRecorder
}

var _ AssignmentServer = (*AssignmentService)(nil)

// NewAssignmentService constructs a service. catalog may be nil, in which
// case requests must carry their own users and satellites.
func NewAssignmentService(catalog *kb.Catalog, base assign.Config, log logging.Logger, metrics assign.MetricsRecorder) *AssignmentService {
	if log == nil {
		log = logging.Noop()
	}
	return &AssignmentService{
		catalog: catalog,
		base:    base,
		log:     log,
		metrics: metrics,
	}
}

// Solve decodes the request, runs the solver and encodes the result.
func (s *AssignmentService) Solve(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	log := s.requestLog(ctx)

	decodeCtx, span := startChildSpan(ctx, "AssignmentService.decode")
	sc, inline, err := DecodeSolveRequest(req, s.base)
	span.End()
	if err != nil {
		log.Warn(decodeCtx, "rejecting solve request", logging.Err(err))
		return nil, ToStatusError(err)
	}

	users, sats := sc.Users, sc.Satellites
	if !inline && s.catalog != nil {
		users, sats = s.catalog.Snapshot()
	}

	res, err := assign.Solve(ctx, users, sats,
		assign.WithConfig(sc.Config),
		assign.WithLogger(log),
		assign.WithMetrics(s.metrics),
	)
	if err != nil {
		return nil, ToStatusError(err)
	}

	_, span = startChildSpan(ctx, "AssignmentService.encode",
		attribute.Int("assign.assigned", len(res.Assignments)),
		attribute.Bool("assign.inline", inline),
	)
	defer span.End()
	out, err := EncodeSolveResponse(res)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return out, nil
}

// AddUser inserts a user into the catalog and echoes it back.
func (s *AssignmentService) AddUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.requireCatalog(); err != nil {
		return nil, err
	}
	u, err := DecodeUser(req)
	if err != nil {
		return nil, ToStatusError(err)
	}
	if err := s.catalog.AddUser(u); err != nil {
		return nil, ToStatusError(err)
	}
	s.requestLog(ctx).Info(ctx, "catalog user added", logging.String("user", string(u.ID)))
	return encodeOrInternal(EncodeUser(u))
}

// RemoveUser deletes a user from the catalog.
func (s *AssignmentService) RemoveUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.requireCatalog(); err != nil {
		return nil, err
	}
	id, err := DecodeID(req)
	if err != nil {
		return nil, ToStatusError(err)
	}
	if err := s.catalog.RemoveUser(model.UserID(id)); err != nil {
		return nil, ToStatusError(err)
	}
	s.requestLog(ctx).Info(ctx, "catalog user removed", logging.String("user", id))
	return &structpb.Struct{}, nil
}

// GetUser looks a user up by id.
func (s *AssignmentService) GetUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.requireCatalog(); err != nil {
		return nil, err
	}
	id, err := DecodeID(req)
	if err != nil {
		return nil, ToStatusError(err)
	}
	u, ok := s.catalog.GetUser(model.UserID(id))
	if !ok {
		return nil, status.Errorf(codes.NotFound, "user %q not found", id)
	}
	return encodeOrInternal(EncodeUser(u))
}

// AddSatellite inserts a satellite into the catalog. TLE satellites are
// propagated to the request's epoch on the way in.
func (s *AssignmentService) AddSatellite(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.requireCatalog(); err != nil {
		return nil, err
	}
	sat, err := DecodeSatellite(req)
	if err != nil {
		return nil, ToStatusError(err)
	}
	if err := s.catalog.AddSatellite(sat); err != nil {
		return nil, ToStatusError(err)
	}
	s.requestLog(ctx).Info(ctx, "catalog satellite added", logging.String("satellite", string(sat.ID)))
	return encodeOrInternal(EncodeSatellite(sat))
}

// GetSatellite looks a satellite up by id.
func (s *AssignmentService) GetSatellite(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.requireCatalog(); err != nil {
		return nil, err
	}
	id, err := DecodeID(req)
	if err != nil {
		return nil, ToStatusError(err)
	}
	sat, ok := s.catalog.GetSatellite(model.SatelliteID(id))
	if !ok {
		return nil, status.Errorf(codes.NotFound, "satellite %q not found", id)
	}
	return encodeOrInternal(EncodeSatellite(sat))
}

func (s *AssignmentService) requireCatalog() error {
	if s.catalog == nil {
		return status.Error(codes.FailedPrecondition, "server has no catalog")
	}
	return nil
}

func (s *AssignmentService) requestLog(ctx context.Context) logging.Logger {
	if log := logging.LoggerFromContext(ctx); log != nil {
		return log
	}
	return s.log
}

func encodeOrInternal(out *structpb.Struct, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, ToStatusError(err)
	}
	return out, nil
}
