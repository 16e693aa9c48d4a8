package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/jobhive/jobhive/internal/domain"
	"github.com/jobhive/jobhive/internal/http/middleware"
	"github.com/jobhive/jobhive/internal/http/response"
	"github.com/jobhive/jobhive/internal/repository"
	"github.com/jobhive/jobhive/internal/service"
)

type JobHandler struct {
	jobSvc service.JobService
}

func NewJobHandler(jobSvc service.JobService) *JobHandler {
	return &JobHandler{jobSvc: jobSvc}
}

type jobRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Type        string `json:"type"`
	Status      string `json:"status"`
}

func (req jobRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.Description, validation.Required),
		validation.Field(&req.Company, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.Location, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.Type, validation.Required,
			validation.In("full-time", "part-time", "contract", "internship", "remote")),
		validation.Field(&req.Status, validation.In("draft", "open", "paused", "closed")),
	)
}

func (req jobRequest) toInput() service.JobInput {
	return service.JobInput{
		Title:       req.Title,
		Description: req.Description,
		Company:     req.Company,
		Location:    req.Location,
		Type:        domain.JobType(req.Type),
		Status:      domain.JobStatus(req.Status),
	}
}

func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, response.CodeUnauthorized, "Authentication required")
		return
	}

	var req jobRequest
	if err := decodeBody(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, response.CodeValidationFailed, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(w, http.StatusBadRequest, response.CodeValidationFailed, "Validation failed", err)
		return
	}

	job, err := h.jobSvc.Create(r.Context(), claims.Subject, req.toInput())
	if err != nil {
		h.writeJobError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, map[string]any{"job": job})
}

func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobSvc.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		h.writeJobError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"job": job})
}

func (h *JobHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, response.CodeUnauthorized, "Authentication required")
		return
	}

	var req jobRequest
	if err := decodeBody(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, response.CodeValidationFailed, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(w, http.StatusBadRequest, response.CodeValidationFailed, "Validation failed", err)
		return
	}

	job, err := h.jobSvc.Update(r.Context(), claims.Subject, claims.Role, pathParam(r, "id"), req.toInput())
	if err != nil {
		h.writeJobError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"job": job})
}

func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, response.CodeUnauthorized, "Authentication required")
		return
	}
	if err := h.jobSvc.Delete(r.Context(), claims.Subject, claims.Role, pathParam(r, "id")); err != nil {
		h.writeJobError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"message": "Job deleted"})
}

// List is public: anyone can browse open postings.
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.JobFilter{
		Status:     domain.JobStatus(q.Get("status")),
		Type:       domain.JobType(q.Get("type")),
		EmployerID: q.Get("employer_id"),
		Location:   q.Get("location"),
		Query:      q.Get("q"),
		Page:       intQuery(q.Get("page")),
		PerPage:    intQuery(q.Get("per_page")),
	}
	page, err := h.jobSvc.List(r.Context(), filter)
	if err != nil {
		response.Internal(w)
		return
	}
	response.JSON(w, http.StatusOK, page)
}

func (h *JobHandler) writeJobError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrJobNotFound):
		response.Error(w, http.StatusNotFound, response.CodeNotFound, "Job not found")
	case errors.Is(err, service.ErrNotJobOwner):
		response.Error(w, http.StatusForbidden, response.CodeForbidden, "You do not own this job")
	case errors.Is(err, service.ErrInvalidJob), errors.Is(err, service.ErrInvalidStatus):
		response.Error(w, http.StatusBadRequest, response.CodeValidationFailed, err.Error())
	default:
		response.Internal(w)
	}
}

func pathParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

func intQuery(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
