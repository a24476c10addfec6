package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/plantops/pkg/domain/interfaces"
	"github.com/secmon-lab/plantops/pkg/usecase"
	"github.com/secmon-lab/plantops/pkg/utils/logging"
	"github.com/secmon-lab/plantops/pkg/utils/metrics"
)

// DefaultMaxUploadBytes bounds image and audio uploads
const DefaultMaxUploadBytes = 20 << 20

type Server struct {
	router         *chi.Mux
	uc             *usecase.UseCases
	images         interfaces.ImageRepository
	metrics        *metrics.Collector
	maxUploadBytes int64
}

type Options func(*Server)

// WithImages enables GET /api/images/{ref}
func WithImages(images interfaces.ImageRepository) Options {
	return func(s *Server) {
		s.images = images
	}
}

// WithMetrics records request metrics and exposes GET /metrics
func WithMetrics(m *metrics.Collector) Options {
	return func(s *Server) {
		s.metrics = m
	}
}

func WithMaxUploadBytes(n int64) Options {
	return func(s *Server) {
		s.maxUploadBytes = n
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:         r,
		uc:             uc,
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(accessLogger)
	if s.metrics != nil {
		r.Use(metricsRecorder(s.metrics))
	}
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/plants", func(r chi.Router) {
			r.Get("/", s.listPlants)
			r.Post("/", s.createPlant)
			r.Get("/{id}", s.getPlant)
			r.Delete("/{id}", s.deletePlant)
			r.Post("/{id}/observations", s.submitObservation)
		})

		r.Post("/audit", s.quickAudit)
		r.Post("/identify", s.identifyPlant)
		r.Get("/tips", s.getTip)

		r.Route("/chat", func(r chi.Router) {
			r.Post("/focus", s.focusChat)
			r.Get("/messages", s.listChatMessages)
			r.Post("/messages", s.sendChatMessage)
		})

		r.Post("/speech/transcribe", s.transcribe)
		r.Post("/speech/speak", s.speak)

		if s.images != nil {
			r.Get("/images/{ref}", s.getImage)
		}
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestLogger binds a logger carrying the request ID to the request context
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.Default().With("request_id", middleware.GetReqID(ctx))
		next.ServeHTTP(w, r.WithContext(logging.With(ctx, logger)))
	})
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.From(r.Context()).Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// metricsRecorder observes every request under its route pattern, keeping label cardinality bounded
func metricsRecorder(m *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				route := "unmatched"
				if rctx := chi.RouteContext(r.Context()); rctx != nil {
					if pattern := rctx.RoutePattern(); pattern != "" {
						route = pattern
					}
				}
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				m.ObserveHTTP(r.Method, route, status, time.Since(start))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
