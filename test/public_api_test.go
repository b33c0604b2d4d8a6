package test

import (
	"context"
	"net/http"
	"testing"

	goThrottle "github.com/MrEthical07/goThrottle"
	"github.com/MrEthical07/goThrottle/middleware"
)

// This test intentionally guards public API compile-compat for consumers.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = goThrottle.New

	var _ *goThrottle.Engine
	var _ goThrottle.Config
	var _ goThrottle.ThrottleConfig
	var _ goThrottle.SubmissionContext
	var _ goThrottle.Decision
	var _ goThrottle.Report
	var _ goThrottle.SweepResult
	var _ goThrottle.AuditSink
	var _ goThrottle.AuditSink = goThrottle.NoOpSink{}
	var _ goThrottle.AuditSink = (*goThrottle.RedisStreamSink)(nil)

	var _ error = goThrottle.ErrEngineNotReady
	var _ error = goThrottle.ErrBuilderUsed
	var _ error = goThrottle.ErrInvalidConfig

	var _ func(*goThrottle.Engine, ...middleware.Option) func(http.Handler) http.Handler = middleware.Guard
	var _ func(*http.Request, bool) string = middleware.ClientIP

	var _ func(*goThrottle.Engine, context.Context, goThrottle.SubmissionContext) goThrottle.Decision = (*goThrottle.Engine).PreCheck
	var _ func(*goThrottle.Engine, context.Context, goThrottle.SubmissionContext) = (*goThrottle.Engine).OnAuthenticationFailure
	var _ func(*goThrottle.Engine, context.Context, goThrottle.SubmissionContext) = (*goThrottle.Engine).OnAuthenticationSuccess
	var _ func(*goThrottle.Engine, context.Context, goThrottle.ThrottleConfig) error = (*goThrottle.Engine).Reload
	var _ func(*goThrottle.Engine, context.Context) (goThrottle.SweepResult, error) = (*goThrottle.Engine).Sweep
}
