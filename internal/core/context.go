package core

import "context"

type contextKey string

const (
	ctxKeyIPAddress contextKey = "batch_ip"
	ctxKeyActor     contextKey = "batch_actor"
)

// ContextWithIPAddress records the client IP for batch history.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// ContextWithActor records who started a batch (session email or API key label).
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ctxKeyActor, actor)
}

// GetIPAddressFromContext extracts the client IP.
func GetIPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}

// GetActorFromContext extracts the actor.
func GetActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyActor).(string); ok {
		return v
	}
	return ""
}
