package nbi

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/beam-assigner/assign"
	"github.com/signalsfoundry/beam-assigner/core"
	"github.com/signalsfoundry/beam-assigner/internal/scenario"
	"github.com/signalsfoundry/beam-assigner/kb"
)

func TestToStatusError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		code    codes.Code
		wantNil bool
	}{
		{name: "nil", err: nil, wantNil: true},
		{name: "status passthrough", err: status.Error(codes.PermissionDenied, "denied"), code: codes.PermissionDenied},
		{name: "bad request", err: fmt.Errorf("%w: not a struct", ErrInvalidRequest), code: codes.InvalidArgument},
		{name: "bad scenario", err: fmt.Errorf("%w: empty document", scenario.ErrInvalidScenario), code: codes.InvalidArgument},
		{name: "bad input", err: assign.ErrInvalidInput, code: codes.InvalidArgument},
		{name: "bad config", err: assign.ErrInvalidConfig, code: codes.InvalidArgument},
		{name: "degenerate geometry", err: fmt.Errorf("user u1: %w", core.ErrDegenerateGeometry), code: codes.InvalidArgument},
		{name: "duplicate id", err: fmt.Errorf("user %q: %w", "u1", kb.ErrExists), code: codes.AlreadyExists},
		{name: "missing id", err: fmt.Errorf("user %q: %w", "u1", kb.ErrNotFound), code: codes.NotFound},
		{name: "canceled", err: context.Canceled, code: codes.Canceled},
		{name: "deadline", err: fmt.Errorf("solve: %w", context.DeadlineExceeded), code: codes.DeadlineExceeded},
		{name: "fallback", err: errors.New("boom"), code: codes.Internal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ToStatusError(tc.err)
			if tc.wantNil {
				if got != nil {
					t.Fatalf("ToStatusError(nil) = %v, want nil", got)
				}
				return
			}

			if got == nil {
				t.Fatalf("ToStatusError(%v) = nil, want error", tc.err)
			}
			if code := status.Code(got); code != tc.code {
				t.Fatalf("ToStatusError(%v) code = %v, want %v", tc.err, code, tc.code)
			}
		})
	}
}
