package rbac

import (
	"context"
	"net/http"
)

var defaultPolicy = NewPolicy(nil)

// Require enforces a single permission against the role in the context.
func Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !defaultPolicy.Allows(RoleFromContext(r.Context()), perm) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAny passes when the role holds at least one of the permissions.
// Used for routes shared between students and staff, like the dashboard.
func RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !defaultPolicy.AllowsAny(RoleFromContext(r.Context()), perms...) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type roleCtxKey struct{}

// WithRole stores the effective role for the request. The auth middleware
// sets it from the JWT claim and AttachRoleFromDB overrides it with the
// authoritative one.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleCtxKey{}, role)
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleCtxKey{}).(string)
	return role
}
