package http

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/ports"
)

type SurveyHandler struct {
	service ports.SurveyService
}

func NewSurveyHandler(service ports.SurveyService) *SurveyHandler {
	return &SurveyHandler{
		service: service,
	}
}

type surveyRequest struct {
	Name           string          `json:"name"`
	City           string          `json:"city"`
	State          string          `json:"state"`
	Date           string          `json:"date"`
	Contractor     string          `json:"contractor"`
	CurrentManager *domain.Manager `json:"current_manager"`
}

type surveyPatchRequest struct {
	Name           *string         `json:"name"`
	City           *string         `json:"city"`
	State          *string         `json:"state"`
	Date           *string         `json:"date"`
	Contractor     *string         `json:"contractor"`
	CurrentManager *domain.Manager `json:"current_manager"`
}

type questionRequest struct {
	Text     *string              `json:"text"`
	Type     *domain.QuestionType `json:"type"`
	Options  []string             `json:"options"`
	Required *bool                `json:"required"`
}

type reorderRequest struct {
	Order []uuid.UUID `json:"order"`
}

// CreateSurvey godoc
// @Summary      Creates a survey
// @Description  Creates an empty survey and assigns its public code.
// @Tags         surveys
// @Accept       json
// @Produce      json
// @Param        survey  body      surveyRequest  true  "Survey"
// @Success      201     {object}  domain.Survey
// @Failure      400     {object}  errorResponse
// @Router       /api/surveys [post]
func (h *SurveyHandler) CreateSurvey(w http.ResponseWriter, r *http.Request) {
	var req surveyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	input := ports.CreateSurveyInput{
		Name:       req.Name,
		City:       req.City,
		State:      req.State,
		Date:       req.Date,
		Contractor: req.Contractor,
	}
	if req.CurrentManager != nil {
		input.CurrentManager = *req.CurrentManager
	}

	survey, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, survey)
}

// ListSurveys godoc
// @Summary      Lists surveys
// @Tags         surveys
// @Produce      json
// @Success      200  {array}  domain.Survey
// @Router       /api/surveys [get]
func (h *SurveyHandler) ListSurveys(w http.ResponseWriter, r *http.Request) {
	surveys, err := h.service.ListSurveys(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if surveys == nil {
		surveys = []*domain.Survey{}
	}
	writeJSON(w, http.StatusOK, surveys)
}

// GetSurvey godoc
// @Summary      Gets a survey with its questions
// @Tags         surveys
// @Produce      json
// @Param        id   path      string  true  "Survey ID"
// @Success      200  {object}  domain.Survey
// @Failure      404  {object}  errorResponse
// @Router       /api/surveys/{id} [get]
func (h *SurveyHandler) GetSurvey(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	survey, err := h.service.GetSurvey(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, survey)
}

func (h *SurveyHandler) UpdateSurvey(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req surveyPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	survey, err := h.service.Update(r.Context(), id, ports.UpdateSurveyInput{
		Name:           req.Name,
		City:           req.City,
		State:          req.State,
		Date:           req.Date,
		Contractor:     req.Contractor,
		CurrentManager: req.CurrentManager,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, survey)
}

func (h *SurveyHandler) DeleteSurvey(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DuplicateSurvey godoc
// @Summary      Duplicates a survey
// @Description  Copies a survey and its questions under a new id and code.
// @Tags         surveys
// @Produce      json
// @Param        id   path      string  true  "Survey ID"
// @Success      201  {object}  domain.Survey
// @Router       /api/surveys/{id}/duplicate [post]
func (h *SurveyHandler) DuplicateSurvey(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	survey, err := h.service.Duplicate(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, survey)
}

func (h *SurveyHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req questionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	input := ports.QuestionInput{Options: req.Options}
	if req.Text != nil {
		input.Text = *req.Text
	}
	if req.Type != nil {
		input.Type = *req.Type
	}
	if req.Required != nil {
		input.Required = *req.Required
	}

	survey, err := h.service.AddQuestion(r.Context(), id, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, survey)
}

func (h *SurveyHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	questionID, err := uuidParam(r, "questionID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req questionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	survey, err := h.service.UpdateQuestion(r.Context(), id, questionID, ports.UpdateQuestionInput{
		Text:     req.Text,
		Type:     req.Type,
		Options:  req.Options,
		Required: req.Required,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, survey)
}

func (h *SurveyHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	questionID, err := uuidParam(r, "questionID")
	if err != nil {
		writeError(w, err)
		return
	}

	survey, err := h.service.DeleteQuestion(r.Context(), id, questionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, survey)
}

func (h *SurveyHandler) ReorderQuestions(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	survey, err := h.service.ReorderQuestions(r.Context(), id, req.Order)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, survey)
}
