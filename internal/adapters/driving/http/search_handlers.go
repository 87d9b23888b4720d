package http

import (
	"net/http"
	"strings"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
)

// SearchRequest is the body of every retrieval endpoint
// @Description Retrieval query with optional path scopes
type SearchRequest struct {
	Query  string   `json:"query" example:"Kündigungsfrist Mietvertrag"`
	Scopes []string `json:"scopes,omitempty" example:"/de/bund"`
}

// ContextResponse wraps the documents handed to the generation step
// @Description Context documents for answer generation
type ContextResponse struct {
	Query     string                   `json:"query"`
	Documents []domain.ContextDocument `json:"documents"`
}

func decodeSearch(w http.ResponseWriter, r *http.Request) (SearchRequest, bool) {
	var req SearchRequest
	if !decodeJSON(w, r, &req) {
		return req, false
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return req, false
	}
	return req, true
}

// handleSearch godoc
// @Summary      Search documents
// @Description  Searches every enabled index and returns store-reconciled documents ranked by weighted score
// @Tags         Search
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      SearchRequest  true  "Search query"
// @Success      200      {object}  domain.RetrievalResult
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Failure      503      {object}  ErrorResponse  "Search engine unavailable"
// @Router       /search [post]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSearch(w, r)
	if !ok {
		return
	}

	result, err := s.retrieval.Search(r.Context(), req.Query, req.Scopes)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleSearchContext godoc
// @Summary      Retrieve generation context
// @Description  Returns the documents passed to the answer generation step
// @Tags         Search
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      SearchRequest  true  "Search query"
// @Success      200      {object}  ContextResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Failure      503      {object}  ErrorResponse  "Search engine unavailable"
// @Router       /search/context [post]
func (s *Server) handleSearchContext(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSearch(w, r)
	if !ok {
		return
	}

	docs, err := s.retrieval.Context(r.Context(), req.Query, req.Scopes)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if docs == nil {
		docs = []domain.ContextDocument{}
	}
	writeJSON(w, http.StatusOK, ContextResponse{Query: req.Query, Documents: docs})
}

// handleSearchDebug godoc
// @Summary      Debug a search
// @Description  Runs a search and reports timings, queried indexes and the rendered scope filter (admin only)
// @Tags         Search
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      SearchRequest  true  "Search query"
// @Success      200      {object}  domain.RetrievalDebug
// @Failure      400      {object}  ErrorResponse
// @Failure      403      {object}  ErrorResponse
// @Router       /admin/search/debug [post]
func (s *Server) handleSearchDebug(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSearch(w, r)
	if !ok {
		return
	}

	debug, err := s.retrieval.Debug(r.Context(), req.Query, req.Scopes)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, debug)
}
