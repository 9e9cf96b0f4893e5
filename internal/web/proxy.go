package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/qartha/idfportal/internal/config"
	"github.com/qartha/idfportal/internal/logging"
	"github.com/qartha/idfportal/internal/metrics"
)

// forwardedHeaders are the request headers passed to the backend in
// addition to any X-* header.
var forwardedHeaders = map[string]struct{}{
	"Accept":          {},
	"Accept-Language": {},
	"Authorization":   {},
	"Content-Type":    {},
	"Content-Length":  {},
	"Cookie":          {},
	"User-Agent":      {},
}

// Proxy forwards /api requests to a separate backend behind a circuit
// breaker.
type Proxy struct {
	target  *url.URL
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[*http.Response]
	rp      *httputil.ReverseProxy
}

// NewProxy validates cfg.BackendURL and builds the proxy.
func NewProxy(cfg config.ProxyConfig) (*Proxy, error) {
	target, err := url.Parse(cfg.BackendURL)
	if err != nil {
		return nil, fmt.Errorf("parse BACKEND_URL: %w", err)
	}
	if target.Scheme != "http" && target.Scheme != "https" || target.Host == "" {
		return nil, fmt.Errorf("BACKEND_URL must be an absolute http(s) URL, got %q", cfg.BackendURL)
	}

	failures := cfg.BreakerFailures
	if failures <= 0 {
		failures = 5
	}

	p := &Proxy{target: target, timeout: cfg.Timeout}
	p.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		IsSuccessful: func(err error) bool {
			// A client hanging up says nothing about the backend.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.ProxyBreakerState.Set(float64(to))
			slog.Warn("proxy breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	p.rp = &httputil.ReverseProxy{
		Rewrite:        p.rewrite,
		Transport:      &breakerTransport{base: http.DefaultTransport, breaker: p.breaker},
		ModifyResponse: func(*http.Response) error { metrics.ProxyRequests.WithLabelValues("ok").Inc(); return nil },
		ErrorHandler:   p.handleError,
	}
	return p, nil
}

func (p *Proxy) rewrite(pr *httputil.ProxyRequest) {
	pr.SetURL(p.target)
	pr.SetXForwarded()
	for name := range pr.Out.Header {
		if _, ok := forwardedHeaders[name]; ok || strings.HasPrefix(name, "X-") {
			continue
		}
		pr.Out.Header.Del(name)
	}
}

// ServeHTTP implements http.Handler.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if p.timeout > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
		defer cancel()
		r = r.WithContext(ctx)
	}
	p.rp.ServeHTTP(w, r)
}

// State returns the breaker state: "closed", "half-open" or "open".
func (p *Proxy) State() string {
	return p.breaker.State().String()
}

func (p *Proxy) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status  int
		outcome string
		resp    ErrorResponse
	)
	ctxErr := r.Context().Err()
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctxErr, context.DeadlineExceeded):
		status, outcome = http.StatusGatewayTimeout, "timeout"
		resp = ErrorResponse{Error: "Gateway Timeout", Message: "The backend did not respond in time", Code: "PRX003"}
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		status, outcome = http.StatusServiceUnavailable, "breaker_open"
		resp = ErrorResponse{Error: "Service Unavailable", Message: "The backend is temporarily unavailable", Action: "Try again in a few seconds", Code: "PRX002"}
	case errors.Is(err, context.Canceled), errors.Is(ctxErr, context.Canceled):
		metrics.ProxyRequests.WithLabelValues("canceled").Inc()
		return
	default:
		status, outcome = http.StatusBadGateway, "upstream_error"
		resp = ErrorResponse{Error: "Bad Gateway", Message: "The backend could not be reached", Code: "PRX001"}
	}

	metrics.ProxyRequests.WithLabelValues(outcome).Inc()
	logging.FromContext(r.Context()).Warn("proxy request failed",
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	)
	writeJSONStatus(w, status, resp)
}

// breakerTransport counts transport failures against the breaker. Upstream
// error statuses are passed through untouched.
type breakerTransport struct {
	base    http.RoundTripper
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.breaker.Execute(func() (*http.Response, error) {
		return t.base.RoundTrip(req)
	})
}
