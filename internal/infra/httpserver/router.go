package httpserver

import (
	"database/sql"
	"errors"
	"log"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	appanalysis "github.com/verilens/verilens/internal/application/analysis"
	domain "github.com/verilens/verilens/internal/domain/analysis"
	"github.com/verilens/verilens/internal/domain/history"
	"github.com/verilens/verilens/internal/infra/intake"
	"github.com/verilens/verilens/internal/infra/providers/resemble"
	"github.com/verilens/verilens/internal/infra/providers/sightengine"
	"github.com/verilens/verilens/internal/middleware"
	"github.com/verilens/verilens/internal/ratelimit"
)

// Deps is everything the router needs wired in.
type Deps struct {
	Analysis     *appanalysis.Service
	Intake       *intake.Store
	Sightengine  *sightengine.Client
	Resemble     *resemble.Client
	Outbound     *ratelimit.Limiter
	History      history.Repository
	Health       map[string]middleware.HealthChecker
	InboundStore ratelimit.CounterStore
	MaxUpload    int64

	// Route-class ceilings (requests per window).
	AnalysisMax int
	StatusMax   int
}

type Router struct {
	deps Deps
}

func NewRouter(deps Deps) http.Handler {
	rt := &Router{deps: deps}
	mux := chi.NewRouter()

	mux.Get("/health", middleware.HealthHandler(deps.Health))
	mux.Get("/metrics", middleware.MetricsHandler)

	analysisLimit := middleware.RateLimit(deps.InboundStore, middleware.AnalysisRule(deps.AnalysisMax))
	statusLimit := middleware.RateLimit(deps.InboundStore, middleware.StatusRule(deps.StatusMax))

	mux.Route("/api", func(api chi.Router) {
		api.Get("/ping", rt.wrap(rt.handlePing))
		api.With(statusLimit).Get("/status", rt.wrap(rt.handleStatus))
		api.Get("/test-sightengine", rt.wrap(rt.handleTestSightengine))
		api.Get("/limits", rt.wrap(rt.handleLimits))
		api.With(analysisLimit).Post("/analyze", rt.wrap(rt.handleAnalyze))

		if deps.History != nil {
			api.Get("/analyses", rt.wrap(rt.handleAnalysesLatest))
			api.Get("/analyses/{id}", rt.wrap(rt.handleAnalysesGet))
		}
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap normalizes every handler error into the shared envelope. Internal
// detail is logged, never leaked.
func (rt *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		switch {
		case errors.Is(err, domain.ErrNoFile),
			errors.Is(err, domain.ErrUnsupportedType):
			writeError(w, http.StatusBadRequest, "Validation error", err.Error())
		case errors.Is(err, domain.ErrFileTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "Payload too large", err.Error())
		case errors.Is(err, domain.ErrProviderQuota):
			rt.writeQuotaExceeded(w)
		case errors.Is(err, sql.ErrNoRows):
			writeError(w, http.StatusNotFound, "Not found", "no such analysis")
		default:
			log.Printf("httpserver: %s %s: %v", req.Method, req.URL.Path, err)
			writeError(w, http.StatusInternalServerError, "Internal server error", "An unexpected error occurred")
		}
	}
}

func (rt *Router) writeQuotaExceeded(w http.ResponseWriter) {
	rem := rt.deps.Outbound.RemainingCalls(sightengine.Service)
	retryAfter := int(math.Ceil(time.Until(rem.NextReset).Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	writeJSON(w, http.StatusTooManyRequests, errorBody{
		Error:      "External API rate limit exceeded",
		Message:    "Rate limit exceeded for the detection provider. Please try again later.",
		RetryAfter: retryAfter,
	})
}

// POST /api/analyze
func (rt *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	middleware.IncrementAnalyses()
	middleware.IncrementAnalysesRunning()
	defer middleware.DecrementAnalysesRunning()

	if err := req.ParseMultipartForm(rt.deps.MaxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "Validation error", "malformed multipart request")
		return nil
	}
	var fh = firstFile(req)
	up, err := rt.deps.Intake.Save(fh)
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return err
	}

	result, err := rt.deps.Analysis.Analyze(req.Context(), up)
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return err
	}

	rt.rateHeaders(w, result.Type)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"result":  result,
	})
	return nil
}

// rateHeaders surfaces the remaining outbound budget for the provider the
// request consumed.
func (rt *Router) rateHeaders(w http.ResponseWriter, category domain.Category) {
	service := sightengine.Service
	if category == domain.CategoryAudio {
		service = resemble.Service
	}
	rem := rt.deps.Outbound.RemainingCalls(service)
	w.Header().Set("X-RateLimit-Remaining-Minute", strconv.Itoa(rem.Minute))
	w.Header().Set("X-RateLimit-Remaining-Hour", strconv.Itoa(rem.Hour))
	w.Header().Set("X-RateLimit-Remaining-Day", strconv.Itoa(rem.Day))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(rem.NextReset.UnixMilli(), 10))
}

func firstFile(req *http.Request) *multipart.FileHeader {
	if req.MultipartForm == nil {
		return nil
	}
	files := req.MultipartForm.File["file"]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

// GET /api/status
func (rt *Router) handleStatus(w http.ResponseWriter, req *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]any{
		"sightengineConfigured": rt.deps.Sightengine.Configured(),
		"resembleConfigured":    rt.deps.Resemble.Configured(),
		"message":               "Deepfake Detection API Ready",
	})
	return nil
}

// GET /api/ping
func (rt *Router) handlePing(w http.ResponseWriter, req *http.Request) error {
	msg := os.Getenv("PING_MESSAGE")
	if msg == "" {
		msg = "ping"
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
	return nil
}

// GET /api/test-sightengine — diagnostic credential check, not part of the
// analysis path.
func (rt *Router) handleTestSightengine(w http.ResponseWriter, req *http.Request) error {
	if err := rt.deps.Sightengine.Probe(req.Context()); err != nil {
		writeError(w, http.StatusBadRequest, "Sightengine API test failed", err.Error())
		return nil
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Sightengine API credentials are valid",
	})
	return nil
}

// GET /api/limits
func (rt *Router) handleLimits(w http.ResponseWriter, req *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]any{
		"sightengine": rt.deps.Outbound.RemainingCalls(sightengine.Service),
		"resemble":    rt.deps.Outbound.RemainingCalls(resemble.Service),
	})
	return nil
}

// GET /api/analyses?limit=20
func (rt *Router) handleAnalysesLatest(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := rt.deps.History.Latest(req.Context(), limit)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "analyses": list})
	return nil
}

// GET /api/analyses/{id}
func (rt *Router) handleAnalysesGet(w http.ResponseWriter, req *http.Request) error {
	rec, err := rt.deps.History.Get(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "analysis": rec})
	return nil
}
