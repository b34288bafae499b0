package nbi

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/beam-assigner/assign"
	"github.com/signalsfoundry/beam-assigner/core"
	"github.com/signalsfoundry/beam-assigner/internal/scenario"
	"github.com/signalsfoundry/beam-assigner/kb"
)

// ErrInvalidRequest is used for requests that cannot be decoded.
var ErrInvalidRequest = errors.New("invalid request")

// ToStatusError maps solver and loader errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, scenario.ErrInvalidScenario),
		errors.Is(err, assign.ErrInvalidInput),
		errors.Is(err, assign.ErrInvalidConfig),
		errors.Is(err, core.ErrDegenerateGeometry),
		errors.Is(err, core.ErrInvalidTLE):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, kb.ErrExists):
		return status.Error(codes.AlreadyExists, err.Error())

	case errors.Is(err, kb.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
