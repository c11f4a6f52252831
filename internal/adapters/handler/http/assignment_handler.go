package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/ports"
)

type AssignmentHandler struct {
	service ports.AssignmentService
}

func NewAssignmentHandler(service ports.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
	}
}

type assignRequest struct {
	ResearcherID uuid.UUID `json:"researcher_id"`
	SurveyID     uuid.UUID `json:"survey_id"`
}

func (h *AssignmentHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	a, err := h.service.Assign(r.Context(), req.ResearcherID, req.SurveyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *AssignmentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		writeError(w, domain.ErrUnauthorized)
		return
	}

	assignments, err := h.service.ListForResearcher(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignments)
}

func (h *AssignmentHandler) ListForSurvey(w http.ResponseWriter, r *http.Request) {
	surveyID, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	assignments, err := h.service.ListForSurvey(r.Context(), surveyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignments)
}

func (h *AssignmentHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Start)
}

func (h *AssignmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Complete)
}

type transitionFunc func(ctx context.Context, id, researcherID uuid.UUID) (*domain.Assignment, error)

func (h *AssignmentHandler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	researcherID, ok := userID(r)
	if !ok {
		writeError(w, domain.ErrUnauthorized)
		return
	}

	a, err := fn(r.Context(), id, researcherID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
