package handlers

import (
	"encoding/json"
	"net/http"

	"wya-server/middleware"
	"wya-server/services"
	"wya-server/utils/errors"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) FileReport(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ReporterID  string `json:"reporterId"`
		ReportedID  string `json:"reportedId"`
		Explanation string `json:"explanation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	report, err := h.reportService.FileReport(r.Context(), input.ReporterID, input.ReportedID, input.Explanation)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "id": report.ID})
}
