package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/felixge/httpsnoop"

	goThrottle "github.com/MrEthical07/goThrottle"
)

const requestIDHeader = "X-Request-ID"

// Options tunes [Guard].
type Options struct {
	// DeniedStatus is written for throttled submissions. Default 423 Locked.
	DeniedStatus int
	// IsFailure classifies the wrapped handler's status. Default: >= 400.
	IsFailure func(status int) bool
	// TrustForwardedHeaders takes the client address from X-Forwarded-For
	// or X-Real-IP. Enable only behind a trusted proxy.
	TrustForwardedHeaders bool
	// Denied, if set, writes the rejection instead of the default body.
	Denied func(w http.ResponseWriter, r *http.Request, d goThrottle.Decision)
}

type Option func(*Options)

func WithDeniedStatus(status int) Option {
	return func(o *Options) { o.DeniedStatus = status }
}

func WithFailureClassifier(fn func(status int) bool) Option {
	return func(o *Options) { o.IsFailure = fn }
}

func WithTrustedForwardedHeaders(trust bool) Option {
	return func(o *Options) { o.TrustForwardedHeaders = trust }
}

func WithDeniedHandler(fn func(w http.ResponseWriter, r *http.Request, d goThrottle.Decision)) Option {
	return func(o *Options) { o.Denied = fn }
}

func defaultOptions() Options {
	return Options{
		DeniedStatus: http.StatusLocked,
		IsFailure:    func(status int) bool { return status >= http.StatusBadRequest },
	}
}

// Guard returns middleware that throttles POST submissions to next.
// A nil engine lets every request through.
func Guard(engine *goThrottle.Engine, opts ...Option) func(http.Handler) http.Handler {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.DeniedStatus == 0 {
		o.DeniedStatus = http.StatusLocked
	}
	if o.IsFailure == nil {
		o.IsFailure = defaultOptions().IsFailure
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			if id := strings.TrimSpace(r.Header.Get(requestIDHeader)); id != "" {
				ctx = goThrottle.WithRequestID(ctx, id)
			}

			sub := goThrottle.SubmissionContext{
				ClientAddress: ClientIP(r, o.TrustForwardedHeaders),
				Username:      submittedUsername(r, engine.ThrottleConfig().UsernameParameter),
			}

			d := engine.PreCheck(ctx, sub)
			if d.Denied() {
				writeDenied(w, r, d, o)
				return
			}

			r = r.WithContext(goThrottle.WithDecision(ctx, d))
			m := httpsnoop.CaptureMetrics(next, w, r)

			if o.IsFailure(m.Code) {
				engine.OnAuthenticationFailure(ctx, sub)
				return
			}
			engine.OnAuthenticationSuccess(ctx, sub)
		})
	}
}

func writeDenied(w http.ResponseWriter, r *http.Request, d goThrottle.Decision, o Options) {
	if d.RetryAfter > 0 {
		secs := int(math.Ceil(d.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	if o.Denied != nil {
		o.Denied(w, r, d)
		return
	}
	http.Error(w, "too many failed authentication attempts", o.DeniedStatus)
}

func submittedUsername(r *http.Request, param string) string {
	param = strings.TrimSpace(param)
	if param == "" {
		return ""
	}
	if v := r.PostFormValue(param); v != "" {
		return v
	}
	return r.URL.Query().Get(param)
}
