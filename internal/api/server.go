// Package api exposes the services over HTTP with chi.
package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/littertag/internal/auth"
	"github.com/mmynk/littertag/internal/middleware"
	"github.com/mmynk/littertag/internal/service"
)

// Options configures the HTTP surface.
type Options struct {
	CORSOrigins []string
	// RateLimit requests per RateWindow per client IP. Zero disables it.
	RateLimit  int
	RateWindow time.Duration
	// MaxUploadBytes caps photo uploads. Zero means 10 MiB.
	MaxUploadBytes int64
	// MediaDir, when set, is served under MediaPath for locally stored
	// photos.
	MediaPath string
	MediaDir  string
}

// Services are the operations the API serves.
type Services struct {
	Auth      *service.AuthService
	Photos    *service.PhotoService
	Tags      *service.TagService
	Teams     *service.TeamService
	Locations *service.LocationService
}

// Server routes HTTP requests to the services.
type Server struct {
	opts   Options
	svc    Services
	jwt    *auth.JWTManager
	feed   http.Handler
	logger *slog.Logger
}

// NewServer creates a Server. feed serves the live event stream and may be
// nil.
func NewServer(opts Options, svc Services, jwtManager *auth.JWTManager, feed http.Handler, logger *slog.Logger) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{opts: opts, svc: svc, jwt: jwtManager, feed: feed, logger: logger}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if s.opts.RateLimit > 0 {
		r.Use(httprate.Limit(s.opts.RateLimit, s.opts.RateWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
				writeErrorBody(w, http.StatusTooManyRequests, ErrorBody{Code: CodeRateLimited, Message: "too many requests"})
			}),
		))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	if s.feed != nil {
		r.Handle("/ws/feed", s.feed)
	}
	if s.opts.MediaDir != "" && strings.HasPrefix(s.opts.MediaPath, "/") {
		prefix := strings.TrimSuffix(s.opts.MediaPath, "/")
		r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(s.opts.MediaDir))))
	}

	r.Post("/auth/register", s.register)
	r.Post("/auth/login", s.login)
	r.Get("/locations/{id}", s.getLocation)
	r.Get("/leaderboard", s.leaderboard)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(s.jwt, writeAuthError))

		r.Get("/user/me", s.me)
		r.Route("/user/profile/photos", func(r chi.Router) {
			r.Post("/", s.uploadPhoto)
			r.Get("/", s.listPhotos)
			r.Get("/previous-custom-tags", s.previousCustomTags)
			r.Post("/tags/create", s.addTags)
			r.Get("/{id}", s.getPhoto)
			r.Delete("/{id}", s.deletePhoto)
		})

		r.Post("/teams", s.createTeam)
		r.Post("/teams/{id}/join", s.joinTeam)
		r.Get("/teams/{id}", s.getTeam)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(writeAuthError))
			r.Post("/photos/{id}/verify", s.verifyPhoto)
			r.Delete("/photos/{id}", s.deletePhoto)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorBody(w, http.StatusNotFound, ErrorBody{Code: CodeNotFound, Message: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorBody(w, http.StatusMethodNotAllowed, ErrorBody{Code: CodeInvalidInput, Message: "method not allowed"})
	})

	return r
}

// actor returns the authenticated caller.
func actor(r *http.Request) service.Actor {
	return service.Actor{
		UserID: middleware.GetUserID(r.Context()),
		Role:   middleware.GetRole(r.Context()),
	}
}
