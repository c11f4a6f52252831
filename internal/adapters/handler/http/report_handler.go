package http

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/ports"
)

type ReportHandler struct {
	service ports.ReportService
}

func NewReportHandler(service ports.ReportService) *ReportHandler {
	return &ReportHandler{
		service: service,
	}
}

type variableReportRequest struct {
	QuestionID uuid.UUID `json:"question_id"`
}

type crossReportRequest struct {
	Variables []uuid.UUID `json:"variables"`
}

// GenerateVariable godoc
// @Summary      Generates a variable report
// @Description  Counts the answers given to one question, with percentages over the total.
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Survey ID"
// @Param        request  body      variableReportRequest  true  "Question"
// @Success      201      {object}  domain.Report
// @Failure      400      {object}  errorResponse
// @Router       /api/surveys/{id}/reports/variable [post]
func (h *ReportHandler) GenerateVariable(w http.ResponseWriter, r *http.Request) {
	surveyID, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req variableReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	report, err := h.service.GenerateVariable(r.Context(), surveyID, req.QuestionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

// GenerateCross godoc
// @Summary      Generates a cross report
// @Description  Cross-tabulates two questions over the researchers that answered both.
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        id       path      string              true  "Survey ID"
// @Param        request  body      crossReportRequest  true  "Two question ids"
// @Success      201      {object}  domain.Report
// @Failure      400      {object}  errorResponse
// @Router       /api/surveys/{id}/reports/cross [post]
func (h *ReportHandler) GenerateCross(w http.ResponseWriter, r *http.Request) {
	surveyID, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req crossReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	report, err := h.service.GenerateCross(r.Context(), surveyID, req.Variables)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (h *ReportHandler) GenerateSample(w http.ResponseWriter, r *http.Request) {
	surveyID, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	report, err := h.service.GenerateSample(r.Context(), surveyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (h *ReportHandler) GenerateItem(w http.ResponseWriter, r *http.Request) {
	surveyID, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	report, err := h.service.GenerateItem(r.Context(), surveyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	surveyID, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	reports, err := h.service.ListReports(r.Context(), surveyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	report, err := h.service.GetReport(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ExportReport godoc
// @Summary      Exports a report
// @Description  Renders a stored report as CSV. format=excel returns the same CSV document.
// @Tags         reports
// @Produce      text/csv
// @Param        id      path   string  true   "Report ID"
// @Param        format  query  string  false  "csv or excel"
// @Success      200
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/reports/{id}/export [get]
func (h *ReportHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := h.service.Export(r.Context(), id, r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="report-%s.csv"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
