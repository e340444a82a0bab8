package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appeval "github.com/bryanwahyu/geo-authority/internal/application/evaluation"
	appexport "github.com/bryanwahyu/geo-authority/internal/application/export"
	appmetrics "github.com/bryanwahyu/geo-authority/internal/application/metrics"
	appnav "github.com/bryanwahyu/geo-authority/internal/application/navigation"
	"github.com/bryanwahyu/geo-authority/internal/domain/assistant"
	domain "github.com/bryanwahyu/geo-authority/internal/domain/evaluation"
	"github.com/bryanwahyu/geo-authority/internal/domain/report"
	"github.com/bryanwahyu/geo-authority/internal/middleware"
	"github.com/bryanwahyu/geo-authority/internal/observability"
)

// Services the router dispatches to. Metrics may be nil.
type Services struct {
	Evaluation *appeval.Service
	Metrics    *appmetrics.Service
	Export     *appexport.Service
	Navigation *appnav.Service
}

// Options for the middleware stack
type Options struct {
	CORSOrigins    []string
	APIKeys        map[string]string
	RateCapacity   int
	RateRefill     int
	HealthCheckers map[string]middleware.HealthChecker

	// Per-project budget for routes that call assistants (analyze, run-all,
	// single run). Zero RunBurst disables it.
	RunBurst      int
	RunsPerMinute int
}

// Router serves the dashboard API. Long operations run on background
// goroutines bound to the base context; Wait blocks until they finish.
type Router struct {
	http.Handler
	svc  Services
	base context.Context
	wg   sync.WaitGroup

	runs *middleware.RateLimiter
}

func NewRouter(base context.Context, svc Services, opts Options) *Router {
	r := &Router{svc: svc, base: base}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(chimw.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	runLimit := func(next http.Handler) http.Handler { return next }
	if opts.RunBurst > 0 {
		r.runs = middleware.NewRateLimiter(opts.RunBurst, float64(opts.RunsPerMinute)/60)
		runLimit = r.runs.Limit(func(req *http.Request) string {
			return chi.URLParam(req, "projectID")
		}, "too many assistant runs for this project, please wait")
	}

	mux.Route("/v1", func(rt chi.Router) {
		rt.Use(middleware.APIKeyAuth(opts.APIKeys))
		if opts.RateCapacity > 0 {
			rt.Use(middleware.RateLimitMiddleware(opts.RateCapacity, opts.RateRefill))
		}

		rt.Get("/categories", r.wrap(r.handleCategories))
		rt.Get("/companies", r.wrap(r.handleListCompanies))
		rt.Post("/companies", r.wrap(r.handleCreateCompany))
		rt.Get("/companies/{companyID}", r.wrap(r.handleGetCompany))
		rt.Delete("/companies/{companyID}", r.wrap(r.handleDeleteCompany))
		rt.Get("/companies/{companyID}/projects", r.wrap(r.handleListProjects))
		rt.Post("/companies/{companyID}/projects", r.wrap(r.handleCreateProject))
		rt.Get("/projects/{projectID}", r.wrap(r.handleGetProject))
		rt.Delete("/projects/{projectID}", r.wrap(r.handleDeleteProject))
		rt.Get("/projects/{projectID}/exports", r.wrap(r.handleListExports))

		rt.Route("/projects/{projectID}/session", func(s chi.Router) {
			s.Get("/", r.wrap(r.handleSession))
			s.Post("/reload", r.wrap(r.handleReload))
			s.Put("/input", r.wrap(r.handleUpdateInput))
			s.With(runLimit).Post("/analyze", r.wrap(r.handleAnalyze))
			s.With(runLimit).Post("/run-all", r.wrap(r.handleRunAll))
			s.Post("/pause", r.wrap(r.handlePause))
			s.Post("/resume", r.wrap(r.handleResume))
			s.Post("/cancel", r.wrap(r.handleCancel))
			s.Post("/questions", r.wrap(r.handleAddQuestion))
			s.Patch("/questions/{resultID}", r.wrap(r.handleEditQuestion))
			s.Delete("/questions/{resultID}", r.wrap(r.handleDeleteQuestion))
			s.With(runLimit).Post("/questions/{resultID}/run", r.wrap(r.handleRunSingle))
			s.Get("/questions/{resultID}/highlight", r.wrap(r.handleHighlight))
			s.Post("/metrics/recalculate", r.wrap(r.handleRecalculate))
			s.Get("/metrics/history", r.wrap(r.handleMetricsHistory))
			s.Get("/failures", r.wrap(r.handleFailures))
			s.Get("/export", r.wrap(r.handleExport))
		})
	})

	r.Handler = mux
	return r
}

// Wait blocks until background operations have returned.
func (r *Router) Wait() { r.wg.Wait() }

// Close releases the run limiter.
func (r *Router) Close() {
	if r.runs != nil {
		r.runs.Close()
	}
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// errBadRequest marks undecodable request bodies
var errBadRequest = errors.New("bad request")

type statusCoder interface {
	HTTPStatus() int
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status := statusFor(err)
		if status >= 500 {
			observability.LoggerFromContext(req.Context()).Error().Err(err).
				Str("path", req.URL.Path).Msg("request failed")
		}
		http.Error(w, err.Error(), status)
	}
}

func statusFor(err error) int {
	var sc statusCoder
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBusy), errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrNoAnalysis),
		errors.Is(err, report.ErrExportUnavailable),
		errors.Is(err, assistant.ErrUnknownProvider):
		return http.StatusUnprocessableEntity
	case errors.Is(err, assistant.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.As(err, &sc):
		// collaborator failure
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// decodeJSON tolerates an empty body when optional is set
func decodeJSON(req *http.Request, v any, optional bool) error {
	err := json.NewDecoder(req.Body).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return nil
	}
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

// background runs fn detached from the request. The request's values (logger,
// request id) carry over; cancellation comes from the router's base context.
func (r *Router) background(req *http.Request, op string, id domain.ProjectID, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(req.Context()))
	stop := context.AfterFunc(r.base, cancel)
	done := middleware.TrackOperation(op)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		defer stop()

		start := time.Now()
		err := fn(ctx)
		done(err)

		log := observability.LoggerFromContext(ctx)
		ev := log.Info()
		if err != nil && !errors.Is(err, context.Canceled) {
			ev = log.Warn().Err(err)
		}
		ev.Str("op", op).Str("project_id", string(id)).Dur("duration", time.Since(start)).Msg("background operation finished")
	}()
}

type queuedResponse struct {
	Status    string    `json:"status"`
	Operation string    `json:"operation"`
	ProjectID string    `json:"project_id"`
	ResultID  string    `json:"result_id,omitempty"`
	QueuedAt  time.Time `json:"queuedAt"`
}

func queued(w http.ResponseWriter, op string, id domain.ProjectID, resultID string) error {
	return writeJSON(w, http.StatusAccepted, queuedResponse{
		Status:    "queued",
		Operation: op,
		ProjectID: string(id),
		ResultID:  resultID,
		QueuedAt:  time.Now(),
	})
}

func projectID(req *http.Request) (domain.ProjectID, error) {
	id := chi.URLParam(req, "projectID")
	if err := middleware.ValidateID("project", id); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return domain.ProjectID(id), nil
}

func companyID(req *http.Request) (domain.CompanyID, error) {
	id := chi.URLParam(req, "companyID")
	if err := middleware.ValidateID("company", id); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return domain.CompanyID(id), nil
}

func resultID(req *http.Request) (string, error) {
	id := chi.URLParam(req, "resultID")
	if err := middleware.ValidateID("question", id); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return id, nil
}
