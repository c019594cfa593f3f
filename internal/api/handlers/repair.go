package handlers

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/aguilartradesfx/financetracker/internal/api/middleware"
	"github.com/aguilartradesfx/financetracker/internal/jobs"
)

// RepairHandler exposes the async repair flow: POST enqueues a full backfill
// pass, GET polls a job for its status and report.
type RepairHandler struct {
	publisher jobs.Publisher
	store     jobs.JobStore
	log       zerolog.Logger
}

// NewRepairHandler creates a new repair handler.
func NewRepairHandler(publisher jobs.Publisher, store jobs.JobStore, log zerolog.Logger) *RepairHandler {
	return &RepairHandler{publisher: publisher, store: store, log: log}
}

// EnqueueRepair handles POST /api/repair
func (h *RepairHandler) EnqueueRepair(w http.ResponseWriter, r *http.Request) {
	job := &jobs.ReconcileJob{Scope: jobs.ScopeAll}

	if err := h.publisher.PublishReconcile(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue repair job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue repair job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Msg("Repair job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// GetRepairJob handles GET /api/repair/{jobID}
func (h *RepairHandler) GetRepairJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	resp := map[string]interface{}{"job": job}
	if job.Report != nil {
		resp["lines"] = job.Report.Render()
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// ListRepairJobs handles GET /api/repair
func (h *RepairHandler) ListRepairJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		ClientID: query.Get("client_id"),
		Status:   jobs.JobStatus(query.Get("status")),
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list repair jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list repair jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
