package auth

import "context"

type ctxKey string

const (
	ctxKeySub   ctxKey = "sub"
	ctxKeyActor ctxKey = "actor"
)

func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxKeySub, sub)
}

// SubjectFromContext returns the effective user id for the request. Under
// admin impersonation this is the impersonated user, not the admin.
func SubjectFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeySub); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ctxKeyActor, actor)
}

// ActorFromContext returns the authenticated user id regardless of
// impersonation. Falls back to the subject when no impersonation is active.
func ActorFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeyActor); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return SubjectFromContext(ctx)
}
