// Package web provides the HTTP server of the IDF portal: the JSON API,
// uploaded static assets, and the optional reverse proxy to a separate
// API backend.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qartha/idfportal/internal/auth"
	"github.com/qartha/idfportal/internal/config"
	"github.com/qartha/idfportal/internal/core"
	"github.com/qartha/idfportal/internal/web/middleware"
)

// maxJSONBody bounds JSON request bodies; tables can be large.
const maxJSONBody = 5 << 20

// Server is the HTTP server.
type Server struct {
	service  *core.Service
	tokens   *auth.Manager
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
	proxy    *Proxy
	validate *validator.Validate
}

// NewServer builds the router. In proxy mode service and tokens may be nil
// and /api is forwarded to cfg.Proxy.BackendURL.
func NewServer(service *core.Service, tokens *auth.Manager, cfg *config.Config) (*Server, error) {
	s := &Server{
		service:  service,
		tokens:   tokens,
		cfg:      cfg,
		router:   chi.NewRouter(),
		validate: core.NewValidator(),
	}

	if cfg.ProxyMode() {
		p, err := NewProxy(cfg.Proxy)
		if err != nil {
			return nil, err
		}
		s.proxy = p
	} else if service == nil || tokens == nil {
		return nil, errors.New("web: service and token manager are required unless BACKEND_URL is set")
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(requestIDHeader)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(securityHeaders)
	s.router.Use(requestMetadata)

	if len(s.cfg.Security.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.Security.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	if s.cfg.Rate.Enabled {
		s.router.Use(httprate.LimitByIP(s.cfg.Rate.RequestsPerMinute, time.Minute))
	}
}

// limit returns a per-IP limiter, or a pass-through when rate limiting is off.
func (s *Server) limit(perMinute int) func(http.Handler) http.Handler {
	if !s.cfg.Rate.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.LimitByIP(perMinute, time.Minute)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Handle("/static/*", http.StripPrefix("/static/", staticHandler(s.cfg.Static.Dir)))

	if s.proxy != nil {
		s.router.Handle("/api", s.proxy)
		s.router.Handle("/api/*", s.proxy)
		return
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
		r.Use(chimw.Compress(5, "application/json"))
		r.Use(middleware.Authenticate(s.tokens, s.cfg.Security.AdminToken))

		r.Route("/auth", func(r chi.Router) {
			r.With(s.limit(s.cfg.Rate.LoginLimit)).Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
			r.With(middleware.RequireUser(respondError)).Get("/me", s.handleMe)
		})

		r.Get("/clusters", s.handleClusters)
		r.Get("/asset-kinds", s.handleAssetKinds)
		r.Get("/devices/template.csv", s.handleDeviceTemplate)

		r.Route("/{cluster}/{project}", func(r chi.Router) {
			// Reads
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser(respondError))
				r.Get("/idfs", s.handleListIDFs)
				r.Get("/idfs/{code}", s.handleGetIDF)
				r.Get("/idfs/{code}/table", s.handleGetTable)
				r.Get("/idfs/{code}/devices", s.handleListDevices)
				r.Get("/idfs/{code}/qr.png", s.handleQR)
			})

			// Writes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(respondError))
				r.Post("/idfs", s.handleCreateIDF)
				r.Put("/idfs/{code}", s.handleUpdateIDF)
				r.Delete("/idfs/{code}", s.handleDeleteIDF)

				r.Post("/idfs/{code}/table", s.handleCreateTable)
				r.Put("/idfs/{code}/table", s.handleReplaceTable)
				r.Post("/idfs/{code}/table/rows", s.handleAddRow)
				r.Delete("/idfs/{code}/table/rows/{index}", s.handleRemoveRow)
				r.Patch("/idfs/{code}/table/cells", s.handleUpdateCell)

				r.Delete("/idfs/{code}/assets/{kind}/{index}", s.handleDeleteAsset)
				r.Post("/devices", s.handleCreateDevices)

				r.Group(func(r chi.Router) {
					r.Use(s.limit(s.cfg.Rate.UploadLimit))
					r.Post("/idfs/{code}/assets/{kind}", s.handleUploadAssets)
					r.Post("/devices/upload_csv", s.handleUploadDevicesCSV)
				})
			})
		})
	})
}

// Start listens on cfg.Server.Addr().
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("server starting", "addr", s.server.Addr, "proxy", s.proxy != nil)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

type healthResponse struct {
	Status  string                    `json:"status"`
	Mode    string                    `json:"mode"`
	Uploads *core.UploadLimiterStatus `json:"uploads,omitempty"`
	Breaker string                    `json:"breaker,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.proxy != nil {
		writeJSON(w, healthResponse{Status: "ok", Mode: "proxy", Breaker: s.proxy.State()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	status := s.service.Limiter().Status()
	if err := s.service.Ping(ctx); err != nil {
		respondError(w, r, fmt.Errorf("health check: %w", err))
		return
	}
	writeJSON(w, healthResponse{Status: "ok", Mode: "local", Uploads: &status})
}

// staticHandler serves uploaded assets without directory listings.
func staticHandler(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || r.URL.Path[len(r.URL.Path)-1] == '/' {
			http.NotFound(w, r)
			return
		}
		if _, err := os.Stat(dir); err != nil {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
