// Package server exposes the analysis pipeline over gRPC. Messages are
// google.protobuf.Struct so the service needs no generated stubs.
package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region service-desc
const (
	ServiceName = "chandra.v1.DiagnosticService"

	analyzeMethod  = "/" + ServiceName + "/Analyze"
	diagnoseMethod = "/" + ServiceName + "/Diagnose"
)

// DiagnosticServer is the server API for the diagnostic service.
type DiagnosticServer interface {
	Analyze(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Diagnose(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the diagnostic service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DiagnosticServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Analyze", Handler: analyzeHandler},
		{MethodName: "Diagnose", Handler: diagnoseHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chandra/v1/diagnostic.proto",
}

// Register attaches srv to a gRPC server.
func Register(gs grpc.ServiceRegistrar, srv DiagnosticServer) {
	gs.RegisterService(&ServiceDesc, srv)
}

// #endregion service-desc

// #region handlers
func analyzeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DiagnosticServer).Analyze(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: analyzeMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DiagnosticServer).Analyze(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func diagnoseHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DiagnosticServer).Diagnose(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: diagnoseMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DiagnosticServer).Diagnose(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// #endregion handlers
