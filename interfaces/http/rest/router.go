package rest

import (
	"context"
	"net/http"
	"time"

	"silo-planner/application/commands/bus"
	querybus "silo-planner/application/queries/bus"
	"silo-planner/interfaces/http/rest/handlers"
	"silo-planner/interfaces/http/rest/middleware"
	appErrors "silo-planner/pkg/errors"
	"silo-planner/pkg/observability"
	"silo-planner/pkg/ratelimit"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// ReadinessCheck reports whether a dependency can serve requests
type ReadinessCheck func(ctx context.Context) error

// RouterConfig holds the HTTP options taken from configuration
type RouterConfig struct {
	EnableCORS      bool
	CORSOrigins     []string
	WriteLimit      int
	WriteWindow     time.Duration
	Debug           bool
	MetricsHandler  http.Handler
	ReadinessChecks map[string]ReadinessCheck
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	limiter    ratelimit.RateLimiter
	observer   middleware.HTTPObserver
	tracer     *observability.Tracer
	cfg        RouterConfig
	logger     *zap.Logger
}

// NewRouter creates a new router instance. limiter, observer and tracer may be nil.
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	limiter ratelimit.RateLimiter,
	observer middleware.HTTPObserver,
	tracer *observability.Tracer,
	cfg RouterConfig,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		limiter:    limiter,
		observer:   observer,
		tracer:     tracer,
		cfg:        cfg,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	errorHandler := appErrors.NewErrorHandler(rt.logger, rt.cfg.Debug)
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger, rt.observer))
	router.Use(rt.tracer.Middleware)

	if rt.cfg.EnableCORS {
		origins := rt.cfg.CORSOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errorHandler.Handle(w, r, appErrors.NewMethodNotAllowedError())
	})
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errorHandler.HandleStatus(w, r, http.StatusNotFound, "Not found")
	})

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.cfg.MetricsHandler != nil {
		router.Method(http.MethodGet, "/metrics", rt.cfg.MetricsHandler)
	}

	comments := handlers.NewCommentHandler(rt.commandBus, rt.queryBus, errorHandler, rt.logger)
	roadmap := handlers.NewRoadmapHandler(rt.commandBus, rt.queryBus, errorHandler, rt.logger)
	limitWrites := middleware.RateLimit(rt.limiter, rt.cfg.WriteLimit, rt.cfg.WriteWindow, errorHandler, rt.logger)

	router.Route("/api", func(r chi.Router) {
		r.Get("/comments", comments.ListComments)
		r.With(limitWrites).Post("/comments", comments.AddComment)
		r.Get("/roadmap", roadmap.LoadRoadmap)
		r.With(limitWrites).Post("/roadmap", roadmap.SaveRoadmap)
	})

	// Paths the deployed front end already calls
	router.Route("/.netlify/functions", func(r chi.Router) {
		r.Get("/get-comments", comments.ListComments)
		r.With(limitWrites).Post("/add-comment", comments.AddComment)
		r.Get("/load-roadmap", roadmap.LoadRoadmap)
		r.With(limitWrites).Post("/save-roadmap", roadmap.SaveRoadmap)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck runs every registered check
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	for name, check := range rt.cfg.ReadinessChecks {
		if err := check(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.String("check", name), zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"not ready","check":"` + name + `"}`))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}
