package auth

import (
	"context"
	"net/http"

	"google.golang.org/grpc/metadata"
)

type ctxKey string

const (
	tenantIDKey ctxKey = "tenant_id"
	roleKey     ctxKey = "role"

	// RoleOperator is the platform staff role allowed to call the operator service.
	RoleOperator = "operator"

	HeaderTenantID = "X-Tenant-ID"
	HeaderRole     = "X-User-Role"
)

// UserContext is what the auth gateway tells us about the caller.
type UserContext struct {
	TenantID string
	Role     string
}

func WithUser(ctx context.Context, u UserContext) context.Context {
	if u.TenantID != "" {
		ctx = context.WithValue(ctx, tenantIDKey, u.TenantID)
	}
	if u.Role != "" {
		ctx = context.WithValue(ctx, roleKey, u.Role)
	}
	return ctx
}

// GetTenantID reads the tenant set by Middleware, falling back to gRPC metadata.
func GetTenantID(ctx context.Context) string {
	return lookup(ctx, tenantIDKey, "x-tenant-id")
}

func GetRole(ctx context.Context) string {
	return lookup(ctx, roleKey, "x-user-role")
}

func lookup(ctx context.Context, key ctxKey, mdKey string) string {
	if val, ok := ctx.Value(key).(string); ok {
		return val
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get(mdKey); len(val) > 0 {
			return val[0]
		}
	}
	return ""
}

// Middleware copies the identity headers injected by the gateway into the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithUser(r.Context(), UserContext{
			TenantID: r.Header.Get(HeaderTenantID),
			Role:     r.Header.Get(HeaderRole),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
