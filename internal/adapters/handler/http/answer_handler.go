package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/ports"
)

type AnswerHandler struct {
	service ports.AnswerService
}

func NewAnswerHandler(service ports.AnswerService) *AnswerHandler {
	return &AnswerHandler{
		service: service,
	}
}

type answerRequest struct {
	QuestionID uuid.UUID `json:"question_id"`
	Answer     string    `json:"answer"`
}

type batchAnswer struct {
	ID         uuid.UUID `json:"id"`
	SurveyID   uuid.UUID `json:"survey_id"`
	QuestionID uuid.UUID `json:"question_id"`
	Answer     string    `json:"answer"`
	CreatedAt  time.Time `json:"created_at"`
}

type batchRequest struct {
	Answers []batchAnswer `json:"answers"`
}

type batchResponse struct {
	Synced int `json:"synced"`
}

// SubmitAnswer godoc
// @Summary      Records one answer
// @Description  Stores an answer given by the authenticated researcher.
// @Tags         answers
// @Accept       json
// @Produce      json
// @Param        id      path      string         true  "Survey ID"
// @Param        answer  body      answerRequest  true  "Answer"
// @Success      201     {object}  domain.Answer
// @Failure      400     {object}  errorResponse
// @Failure      429     {object}  errorResponse
// @Router       /api/surveys/{id}/answers [post]
func (h *AnswerHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	surveyID, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	researcherID, ok := userID(r)
	if !ok {
		writeError(w, domain.ErrUnauthorized)
		return
	}
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	answer, err := h.service.Submit(r.Context(), ports.AnswerInput{
		SurveyID:     surveyID,
		QuestionID:   req.QuestionID,
		ResearcherID: researcherID,
		Answer:       req.Answer,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, answer)
}

// SubmitBatch godoc
// @Summary      Stores answers collected offline
// @Description  All-or-nothing. Answers whose id is already stored are skipped, so a batch may be resent safely.
// @Tags         answers
// @Accept       json
// @Produce      json
// @Param        batch  body      batchRequest  true  "Answers"
// @Success      200    {object}  batchResponse
// @Failure      400    {object}  errorResponse
// @Router       /api/answers/batch [post]
func (h *AnswerHandler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	researcherID, ok := userID(r)
	if !ok {
		writeError(w, domain.ErrUnauthorized)
		return
	}
	var req batchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	answers := make([]domain.Answer, len(req.Answers))
	for i, a := range req.Answers {
		answers[i] = domain.Answer{
			ID:           a.ID,
			SurveyID:     a.SurveyID,
			QuestionID:   a.QuestionID,
			ResearcherID: researcherID,
			Answer:       a.Answer,
			CreatedAt:    a.CreatedAt,
		}
	}

	if err := h.service.SubmitBatch(r.Context(), answers); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Synced: len(answers)})
}

func (h *AnswerHandler) ListAnswers(w http.ResponseWriter, r *http.Request) {
	surveyID, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	answers, err := h.service.ListBySurvey(r.Context(), surveyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}

func (h *AnswerHandler) ListMyAnswers(w http.ResponseWriter, r *http.Request) {
	surveyID, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	researcherID, ok := userID(r)
	if !ok {
		writeError(w, domain.ErrUnauthorized)
		return
	}

	answers, err := h.service.ListMine(r.Context(), surveyID, researcherID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}
