package nbi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// AssignmentServiceName is the fully-qualified gRPC service name.
const AssignmentServiceName = "beamassign.v1.AssignmentService"

const (
	solveFullMethod        = "/" + AssignmentServiceName + "/Solve"
	addUserFullMethod      = "/" + AssignmentServiceName + "/AddUser"
	removeUserFullMethod   = "/" + AssignmentServiceName + "/RemoveUser"
	getUserFullMethod      = "/" + AssignmentServiceName + "/GetUser"
	addSatelliteFullMethod = "/" + AssignmentServiceName + "/AddSatellite"
	getSatelliteFullMethod = "/" + AssignmentServiceName + "/GetSatellite"
)

// AssignmentServer is the server API for AssignmentService. Requests and
// responses are google.protobuf.Struct documents; see the codec functions
// for their shape.
type AssignmentServer interface {
	Solve(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddSatellite(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSatellite(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type structCall func(AssignmentServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// AssignmentServiceDesc describes AssignmentService for grpc.Server.
var AssignmentServiceDesc = grpc.ServiceDesc{
	ServiceName: AssignmentServiceName,
	HandlerType: (*AssignmentServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Solve", Handler: unaryHandler(solveFullMethod, AssignmentServer.Solve)},
		{MethodName: "AddUser", Handler: unaryHandler(addUserFullMethod, AssignmentServer.AddUser)},
		{MethodName: "RemoveUser", Handler: unaryHandler(removeUserFullMethod, AssignmentServer.RemoveUser)},
		{MethodName: "GetUser", Handler: unaryHandler(getUserFullMethod, AssignmentServer.GetUser)},
		{MethodName: "AddSatellite", Handler: unaryHandler(addSatelliteFullMethod, AssignmentServer.AddSatellite)},
		{MethodName: "GetSatellite", Handler: unaryHandler(getSatelliteFullMethod, AssignmentServer.GetSatellite)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "beamassign/v1/assignment.proto",
}

// RegisterAssignmentServer registers srv on s.
func RegisterAssignmentServer(s grpc.ServiceRegistrar, srv AssignmentServer) {
	s.RegisterService(&AssignmentServiceDesc, srv)
}

func unaryHandler(fullMethod string, call structCall) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AssignmentServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(AssignmentServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AssignmentClient calls AssignmentService.
type AssignmentClient struct {
	cc grpc.ClientConnInterface
}

// NewAssignmentClient wraps a client connection.
func NewAssignmentClient(cc grpc.ClientConnInterface) *AssignmentClient {
	return &AssignmentClient{cc: cc}
}

func (c *AssignmentClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Solve invokes AssignmentService/Solve.
func (c *AssignmentClient) Solve(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, solveFullMethod, in, opts)
}

// AddUser invokes AssignmentService/AddUser.
func (c *AssignmentClient) AddUser(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, addUserFullMethod, in, opts)
}

// RemoveUser invokes AssignmentService/RemoveUser.
func (c *AssignmentClient) RemoveUser(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, removeUserFullMethod, in, opts)
}

// GetUser invokes AssignmentService/GetUser.
func (c *AssignmentClient) GetUser(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, getUserFullMethod, in, opts)
}

// AddSatellite invokes AssignmentService/AddSatellite.
func (c *AssignmentClient) AddSatellite(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, addSatelliteFullMethod, in, opts)
}

// GetSatellite invokes AssignmentService/GetSatellite.
func (c *AssignmentClient) GetSatellite(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, getSatelliteFullMethod, in, opts)
}
