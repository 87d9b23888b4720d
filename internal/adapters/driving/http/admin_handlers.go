package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driving"
)

// defaultPreviewCount is the number of runs a preview returns when unset
const defaultPreviewCount = 5

// TriggerJobRequest starts a manual index job
// @Description Manual index job request
type TriggerJobRequest struct {
	Type domain.JobType `json:"type" example:"incremental"`
}

// PreviewScheduleRequest asks for the next activations of a cron expression
// @Description Cron preview request
type PreviewScheduleRequest struct {
	CronExpression string     `json:"cron_expression" example:"0 3 * * *"`
	Count          int        `json:"count,omitempty" example:"5"`
	From           *time.Time `json:"from,omitempty"`
}

// PreviewScheduleResponse describes a cron expression and its next runs
// @Description Cron preview
type PreviewScheduleResponse struct {
	CronExpression string      `json:"cron_expression"`
	Description    string      `json:"description"`
	NextRuns       []time.Time `json:"next_runs"`
}

// ReindexResponse reports the job started for a single document
// @Description Single document reindex result
type ReindexResponse struct {
	DocumentID string           `json:"document_id"`
	Status     string           `json:"status" example:"started"`
	Job        *domain.IndexJob `json:"job,omitempty"`
}

// Job endpoints

// handleStatus godoc
// @Summary      Worker status
// @Description  Returns the worker state, active job, recent jobs and per-index stats (admin only)
// @Tags         Jobs
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.WorkerStatus
// @Failure      403  {object}  ErrorResponse
// @Router       /admin/status [get]
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.jobs.Status(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleTriggerJob godoc
// @Summary      Start an index job
// @Description  Starts a manual full or incremental index job on the single execution slot (admin only)
// @Tags         Jobs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      TriggerJobRequest  true  "Job type"
// @Success      202      {object}  domain.IndexJob
// @Failure      400      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse  "A job is already running"
// @Router       /admin/jobs [post]
func (s *Server) handleTriggerJob(w http.ResponseWriter, r *http.Request) {
	var req TriggerJobRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Type.IsValid() {
		writeError(w, http.StatusBadRequest, "type must be full or incremental")
		return
	}

	job, err := s.jobs.Trigger(r.Context(), req.Type)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

// handleCancelJob godoc
// @Summary      Cancel the active job
// @Description  Cancels the running job; 404 when the job is unknown or already finished (admin only)
// @Tags         Jobs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse  "Job not found or already completed"
// @Router       /admin/jobs/{id}/cancel [post]
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	cancelled, err := s.jobs.CancelJob(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !cancelled {
		writeError(w, http.StatusNotFound, "job not found or already completed")
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "cancelling"})
}

// Schedule endpoints

// handleListSchedules godoc
// @Summary      List schedules
// @Description  Returns every schedule with its next run (admin only)
// @Tags         Schedules
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Schedule
// @Router       /admin/schedules [get]
func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := s.schedules.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schedules)
}

// handleCreateSchedule godoc
// @Summary      Create a schedule
// @Description  Validates the cron expression and stores a new schedule (admin only)
// @Tags         Schedules
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.CreateScheduleRequest  true  "Schedule"
// @Success      201      {object}  domain.Schedule
// @Failure      400      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse  "Name already taken"
// @Router       /admin/schedules [post]
func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req driving.CreateScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sched, err := s.schedules.Create(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sched)
}

// handlePreviewSchedule godoc
// @Summary      Preview a cron expression
// @Description  Describes a cron expression and lists its next activations (admin only)
// @Tags         Schedules
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      PreviewScheduleRequest  true  "Expression"
// @Success      200      {object}  PreviewScheduleResponse
// @Failure      400      {object}  ErrorResponse
// @Router       /admin/schedules/preview [post]
func (s *Server) handlePreviewSchedule(w http.ResponseWriter, r *http.Request) {
	var req PreviewScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Count <= 0 {
		req.Count = defaultPreviewCount
	}
	from := time.Now().UTC()
	if req.From != nil {
		from = *req.From
	}

	description, err := s.schedules.Describe(req.CronExpression)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	runs, err := s.schedules.Preview(req.CronExpression, from, req.Count)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PreviewScheduleResponse{
		CronExpression: req.CronExpression,
		Description:    description,
		NextRuns:       runs,
	})
}

// handleGetSchedule godoc
// @Summary      Get a schedule
// @Tags         Schedules
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Schedule ID"
// @Success      200  {object}  domain.Schedule
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/schedules/{id} [get]
func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := s.schedules.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

// handleUpdateSchedule godoc
// @Summary      Update a schedule
// @Description  Applies a partial update (admin only)
// @Tags         Schedules
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Schedule ID"
// @Param        request  body      driving.UpdateScheduleRequest  true  "Changes"
// @Success      200      {object}  domain.Schedule
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /admin/schedules/{id} [put]
func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var req driving.UpdateScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sched, err := s.schedules.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

// handleDeleteSchedule godoc
// @Summary      Delete a schedule
// @Tags         Schedules
// @Security     BearerAuth
// @Param        id   path  string  true  "Schedule ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/schedules/{id} [delete]
func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.schedules.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleScheduleStatus godoc
// @Summary      Schedule runtime status
// @Description  Returns the next run, last job and running flag of a schedule (admin only)
// @Tags         Schedules
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Schedule ID"
// @Success      200  {object}  domain.ScheduleStatus
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/schedules/{id}/status [get]
func (s *Server) handleScheduleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.jobs.ScheduleStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Index definition endpoints

// handleListIndexes godoc
// @Summary      List index definitions
// @Tags         Indexes
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.SearchIndex
// @Router       /admin/indexes [get]
func (s *Server) handleListIndexes(w http.ResponseWriter, r *http.Request) {
	indexes, err := s.index.ListIndexes(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, indexes)
}

// handleSaveIndex godoc
// @Summary      Create or update an index definition
// @Description  Upserts the definition by name and provisions the engine index (admin only)
// @Tags         Indexes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.SaveIndexRequest  true  "Index definition"
// @Success      200      {object}  domain.SearchIndex
// @Failure      400      {object}  ErrorResponse
// @Failure      503      {object}  ErrorResponse
// @Router       /admin/indexes [put]
func (s *Server) handleSaveIndex(w http.ResponseWriter, r *http.Request) {
	var req driving.SaveIndexRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	idx, err := s.index.SaveIndex(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idx)
}

// handleDeleteIndex godoc
// @Summary      Delete an index definition
// @Description  Removes the definition and drops the engine index (admin only)
// @Tags         Indexes
// @Security     BearerAuth
// @Param        name  path  string  true  "Index name"
// @Success      204
// @Failure      404   {object}  ErrorResponse
// @Router       /admin/indexes/{name} [delete]
func (s *Server) handleDeleteIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.index.DeleteIndex(r.Context(), r.PathValue("name")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleIndexStats godoc
// @Summary      Index statistics
// @Description  Reports engine stats for every enabled index (admin only)
// @Tags         Indexes
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.IndexStatus
// @Router       /admin/indexes/stats [get]
func (s *Server) handleIndexStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.index.GetIndexStats(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Document endpoints

// handleListDocuments godoc
// @Summary      List documents
// @Description  Returns a page of documents, newest first (admin only)
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        status        query     string  false  "pending, indexed, failed or skipped"
// @Param        search        query     string  false  "Substring of title or content"
// @Param        updated_from  query     string  false  "RFC 3339 lower bound"
// @Param        updated_to    query     string  false  "RFC 3339 upper bound"
// @Param        page          query     int     false  "Page number, from 1"
// @Success      200           {object}  driving.DocumentPage
// @Failure      400           {object}  ErrorResponse
// @Router       /admin/documents [get]
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := driving.ListDocumentsRequest{
		Status: domain.DocumentStatus(q.Get("status")),
		Search: q.Get("search"),
		Page:   1,
	}

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		req.Page = page
	}
	for param, dst := range map[string]**time.Time{
		"updated_from": &req.UpdatedFrom,
		"updated_to":   &req.UpdatedTo,
	} {
		v := q.Get(param)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, param+" must be an RFC 3339 timestamp")
			return
		}
		*dst = &t
	}

	page, err := s.documents.List(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleCreateDocument godoc
// @Summary      Create a document
// @Description  Stores a new pending document (admin only)
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.CreateDocumentRequest  true  "Document"
// @Success      201      {object}  domain.Document
// @Failure      400      {object}  ErrorResponse
// @Router       /admin/documents [post]
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req driving.CreateDocumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	doc, err := s.documents.Create(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// handleGetDocument godoc
// @Summary      Get a document
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.Document
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/documents/{id} [get]
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documents.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleUpdateDocument godoc
// @Summary      Update a document
// @Description  Edits a document and resets it to pending (admin only)
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Document ID"
// @Param        request  body      driving.UpdateDocumentRequest  true  "Changes"
// @Success      200      {object}  domain.Document
// @Failure      404      {object}  ErrorResponse
// @Router       /admin/documents/{id} [put]
func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	var req driving.UpdateDocumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	doc, err := s.documents.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleDeleteDocument godoc
// @Summary      Delete a document
// @Description  Retracts the document from every index, then deletes it (admin only)
// @Tags         Documents
// @Security     BearerAuth
// @Param        id   path  string  true  "Document ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse  "Retraction failed; the record is kept"
// @Router       /admin/documents/{id} [delete]
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.documents.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReindexDocument godoc
// @Summary      Reindex a document
// @Description  Resets the document to pending and starts an incremental job. When another job holds the slot the document waits for the next run (admin only)
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      202  {object}  ReindexResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/documents/{id}/reindex [post]
func (s *Server) handleReindexDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, err := s.documents.Reindex(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := ReindexResponse{DocumentID: id, Status: "started", Job: job}
	if job == nil {
		resp.Status = "queued"
	}
	writeJSON(w, http.StatusAccepted, resp)
}
