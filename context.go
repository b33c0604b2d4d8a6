package goThrottle

import "context"

type requestIDContextKey struct{}
type decisionContextKey struct{}

// WithRequestID attaches a request identifier to ctx. Audit events emitted
// for the request carry it as metadata.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// WithDecision attaches a pre-check decision to ctx so downstream handlers
// can inspect it.
func WithDecision(ctx context.Context, d Decision) context.Context {
	return context.WithValue(ctx, decisionContextKey{}, d)
}

// DecisionFromContext returns the decision stored by [WithDecision].
func DecisionFromContext(ctx context.Context) (Decision, bool) {
	if ctx == nil {
		return Decision{}, false
	}
	d, ok := ctx.Value(decisionContextKey{}).(Decision)
	return d, ok
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
