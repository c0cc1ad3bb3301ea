package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/metrics"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/usecase"
)

// Server is the HTTP surface: plan CRUD, guide generation, spot listing,
// the Cloud Tasks push endpoint and the JWT-guarded admin job API.
type Server struct {
	planUC  usecase.PlanUseCase
	guideUC usecase.GuideUseCase
	jobUC   usecase.ImageJobUseCase
	auth    *AuthManager
	apiKey  string // exchanged for an admin session token
	queue   string // expected Cloud Tasks queue name on push deliveries
	timeout time.Duration
	log     *zerolog.Logger
}

func NewServer(
	planUC usecase.PlanUseCase,
	guideUC usecase.GuideUseCase,
	jobUC usecase.ImageJobUseCase,
	auth *AuthManager,
	apiKey string,
	queue string,
	requestTimeout time.Duration,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		planUC:  planUC,
		guideUC: guideUC,
		jobUC:   jobUC,
		auth:    auth,
		apiKey:  apiKey,
		queue:   queue,
		timeout: requestTimeout,
		log:     logger,
	}
}

// Router assembles the chi router with the shared middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log), Timeout(s.timeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/plans", s.handlePlanCreate)
		r.Get("/plans", s.handlePlanList)
		r.Get("/plans/{planID}", s.handlePlanGet)
		r.Delete("/plans/{planID}", s.handlePlanDelete)
		r.Post("/plans/{planID}/guide", s.handleGuideGenerate)
		r.Get("/plans/{planID}/spots", s.handleSpotList)

		r.Post("/admin/session", s.handleAdminSession)
		r.Group(func(r chi.Router) {
			r.Use(s.adminOnly)
			r.Get("/admin/jobs", s.handleJobList)
			r.Get("/admin/jobs/stats", s.handleJobStats)
			r.Get("/admin/jobs/{jobID}", s.handleJobGet)
			r.Post("/admin/jobs/{jobID}/requeue", s.handleJobRequeue)
		})
	})

	// The push endpoint lives outside /api/v1: it is queue-facing, not
	// client-facing, and its own header check is the authorization.
	r.Post("/internal/tasks/spot-image", s.handlePushTask)

	return r
}

// adminOnly rejects requests without a valid admin session token.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			metrics.IncAdminRequest(r.URL.Path, "unauthorized")
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}
		metrics.IncAdminRequest(r.URL.Path, "authorized")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeDomainError maps sentinel domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "invalid argument")
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
	case errors.Is(err, domain.ErrJobNotRequeueable):
		writeError(w, http.StatusConflict, "job is not in a requeueable state")
	case errors.Is(err, domain.ErrPlanBusy):
		writeError(w, http.StatusConflict, "plan still has in-flight image jobs")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
