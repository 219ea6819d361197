package operator

import (
	"context"
	"strings"

	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RequireOperator rejects calls to the operator service from any role but auth.RoleOperator.
func RequireOperator() grpc.UnaryServerInterceptor {
	prefix := "/" + ServiceName + "/"
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if strings.HasPrefix(info.FullMethod, prefix) && auth.GetRole(ctx) != auth.RoleOperator {
			return nil, status.Error(codes.PermissionDenied, "operator role required")
		}
		return handler(ctx, req)
	}
}
