package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/model"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/metrics"
)

type planCreateRequest struct {
	Title       string   `json:"title"`
	Destination string   `json:"destination"`
	Days        int      `json:"days"`
	Interests   []string `json:"interests"`
}

func (s *Server) handlePlanCreate(w http.ResponseWriter, r *http.Request) {
	var req planCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	plan, err := s.planUC.Create(r.Context(), req.Title, req.Destination, req.Days, req.Interests)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) handlePlanList(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planUC.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": plans})
}

func (s *Server) handlePlanGet(w http.ResponseWriter, r *http.Request) {
	plan, err := s.planUC.Get(r.Context(), chi.URLParam(r, "planID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handlePlanDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.planUC.Delete(r.Context(), chi.URLParam(r, "planID")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGuideGenerate is the producer trigger: it blocks until the guide
// text is written, spots and jobs are committed and every new job is
// dispatched. Images arrive later; clients poll the spots endpoint.
func (s *Server) handleGuideGenerate(w http.ResponseWriter, r *http.Request) {
	result, err := s.guideUC.Generate(r.Context(), chi.URLParam(r, "planID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSpotList(w http.ResponseWriter, r *http.Request) {
	spots, err := s.guideUC.Spots(r.Context(), chi.URLParam(r, "planID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"spots": spots})
}

// ---- Admin ----

type adminSessionRequest struct {
	APIKey string `json:"api_key"`
}

// handleAdminSession exchanges the configured API key for a short-lived
// JWT used on the remaining admin endpoints.
func (s *Server) handleAdminSession(w http.ResponseWriter, r *http.Request) {
	var req adminSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if s.apiKey == "" || subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(s.apiKey)) != 1 {
		metrics.IncAdminRequest("/api/v1/admin/session", "unauthorized")
		writeError(w, http.StatusUnauthorized, "invalid api key")
		return
	}
	token, err := s.auth.Mint()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not mint session")
		return
	}
	metrics.IncAdminRequest("/api/v1/admin/session", "authorized")
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_in": int(s.auth.TTL().Seconds()),
	})
}

func (s *Server) handleJobList(w http.ResponseWriter, r *http.Request) {
	status := model.ImageJobStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = model.ImageJobStatusFailed
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	jobs, err := s.jobUC.List(r.Context(), status, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (s *Server) handleJobStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.jobUC.Stats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"counts": counts})
}

func (s *Server) handleJobGet(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobUC.Get(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleJobRequeue is the operator path out of a terminal failure: the
// job returns to queued (attempts intact) and is dispatched again.
func (s *Server) handleJobRequeue(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobUC.Requeue(r.Context(), chi.URLParam(r, "jobID"), "")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
