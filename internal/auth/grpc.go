package auth

import (
	"context"

	"google.golang.org/grpc"
)

// ContextInterceptor lifts the gateway identity from gRPC metadata into the context.
func ContextInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx = WithUser(ctx, UserContext{
			TenantID: GetTenantID(ctx),
			Role:     GetRole(ctx),
		})
		return handler(ctx, req)
	}
}
