// Package httpapi implements the inward HTTP surface of spec.md §6: a
// single-document admission query endpoint and a plan submission/streaming
// endpoint, on top of the pure admission/plan/executor core.
//
// Routing follows the teacher's own transport layering
// (internal/mcp/http.go wraps a transport-agnostic core behind net/http)
// but swaps the hand-rolled ServeMux and ad hoc CORS header-setting for
// go-chi/chi/v5 and go-chi/cors, and adds request-shape validation with
// go-playground/validator/v10 before anything reaches the pure core.
package httpapi

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/bacopilot/docorch/internal/admission"
	"github.com/bacopilot/docorch/internal/executor"
	"github.com/bacopilot/docorch/internal/generator"
	"github.com/bacopilot/docorch/internal/plan"
)

// Server wires the pure core (Evaluator, Validator, Executor) behind a
// chi router. One Server instance is long-lived for the process; it
// issues a fresh Executor per plan run (spec.md §5: "single logical
// orchestration per plan run", runs for different sessions proceed in
// parallel).
type Server struct {
	logger    *slog.Logger
	evaluator *admission.Evaluator
	validator *plan.Validator
	gen       generator.Generator
	registry  *executor.Registry

	validate *validator.Validate
	upgrader websocket.Upgrader

	channelBackend string
	redisClient    *redis.Client

	mu           sync.Mutex
	pendingRuns  map[string]pendingRun
	defaultMode  admission.Mode
	defaultAllow bool
}

type pendingRun struct {
	plan      plan.Plan
	projectID int64
	mode      admission.Mode
	policy    executor.Policy
}

// Options carries the default-enforcement configuration needed to build
// a Server. CORS origins are supplied separately to Router, since they
// are a transport concern rather than an admission default.
type Options struct {
	DefaultMode   admission.Mode
	AllowOverride bool
	// ChannelBackend selects the streaming transport the plan endpoint
	// runs the Executor's Adapter over: "in-process" (default) drives the
	// Executor directly off the upgraded websocket connection; "redis"
	// relays events/decisions through a pair of go-redis/v9 pub/sub
	// channels instead, per config.TransportConfig.ChannelBackend.
	// RedisClient must be non-nil when ChannelBackend is "redis".
	ChannelBackend string
	RedisClient    *redis.Client
}

// NewServer builds a Server over the given collaborators.
func NewServer(eval *admission.Evaluator, val *plan.Validator, gen generator.Generator, registry *executor.Registry, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DefaultMode == "" {
		opts.DefaultMode = admission.DefaultMode
	}
	if opts.ChannelBackend == "" {
		opts.ChannelBackend = "in-process"
	}
	return &Server{
		logger:         logger,
		evaluator:      eval,
		validator:      val,
		gen:            gen,
		registry:       registry,
		validate:       validator.New(),
		upgrader:       websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		channelBackend: opts.ChannelBackend,
		redisClient:    opts.RedisClient,
		pendingRuns:    make(map[string]pendingRun),
		defaultMode:    opts.DefaultMode,
		defaultAllow:   opts.AllowOverride,
	}
}

// Router builds the chi router mounting every endpoint of spec.md §6.1/§6.2.
func (s *Server) Router(corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/projects/{projectID}/admission", s.handleAdmission)
		r.Post("/projects/{projectID}/plans", s.handlePlanSubmit)
		r.Get("/plans/{runID}/stream", s.handlePlanStream)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method, "path", r.URL.Path,
				"status", ww.Status(), "duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// runExecutor builds a fresh Executor for one plan run over the Server's
// Generator, tracked by the Server's Registry when one is set.
func (s *Server) runExecutor() *executor.Executor {
	e := executor.New(s.evaluator, s.gen, s.logger)
	if s.registry != nil {
		e = e.WithRegistry(s.registry)
	}
	return e
}
