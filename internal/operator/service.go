// Package operator exposes platform staff operations over gRPC. Messages are
// google.protobuf.Struct so the service needs no generated code.
package operator

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "omnipos.storefront.v1.OperatorService"

type OperatorServer interface {
	AdjustCredits(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ToggleTenant(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CreateTenant(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListWalletTransactions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetGlobalStats(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(srv OperatorServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func method(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(OperatorServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(s, ctx, req.(*structpb.Struct))
			})
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OperatorServer)(nil),
	Methods: []grpc.MethodDesc{
		method("AdjustCredits", OperatorServer.AdjustCredits),
		method("ToggleTenant", OperatorServer.ToggleTenant),
		method("CreateTenant", OperatorServer.CreateTenant),
		method("ListWalletTransactions", OperatorServer.ListWalletTransactions),
		method("GetGlobalStats", OperatorServer.GetGlobalStats),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/storefront/v1/operator.proto",
}

func RegisterOperatorServer(s grpc.ServiceRegistrar, srv OperatorServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// OperatorClient calls the service with plain maps instead of generated stubs.
type OperatorClient struct {
	cc grpc.ClientConnInterface
}

func NewOperatorClient(cc grpc.ClientConnInterface) *OperatorClient {
	return &OperatorClient{cc: cc}
}

func (c *OperatorClient) Call(ctx context.Context, methodName string, req map[string]interface{}, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+methodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
