package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"loanshop/internal/api/handler/dto"
	"loanshop/internal/config"
	"loanshop/internal/domain/report"
	"loanshop/internal/pkg/apperrors"
	"loanshop/internal/pkg/thaidate"
	"loanshop/internal/spreadsheet"

	"github.com/go-chi/chi/v5"
)

type ReportHandler struct {
	service report.ReportService
	cfg     config.ReportConfig
	logger  *slog.Logger
}

func NewReportHandler(s report.ReportService, cfg config.ReportConfig, l *slog.Logger) *ReportHandler {
	return &ReportHandler{
		service: s,
		cfg:     cfg,
		logger:  l.With("component", "ReportHandler"),
	}
}

func getMonthFromURL(r *http.Request) (int, int, error) {
	year, errY := strconv.Atoi(chi.URLParam(r, "year"))
	month, errM := strconv.Atoi(chi.URLParam(r, "month"))
	if errY != nil || errM != nil {
		return 0, 0, fmt.Errorf("year and month must be numbers")
	}
	return year, month, nil
}

func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.ListReports(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]dto.MonthlyReportResponse, len(reports))
	for i, rep := range reports {
		out[i] = dto.NewMonthlyReportResponse(rep, thaidate.MonthName(rep.Year, rep.Month))
	}
	respondJSON(w, http.StatusOK, out)
}

// History serves the dashboard chart: a trailing window of months ending
// at the current one, oldest first. The window length comes from config
// and can be overridden with the "months" query parameter.
func (h *ReportHandler) History(w http.ResponseWriter, r *http.Request) {
	months := h.cfg.HistoryMonths
	if raw := r.URL.Query().Get("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, fmt.Errorf("%w: months must be a positive number", apperrors.ErrInvalidArgument))
			return
		}
		months = n
	}

	now := time.Now()
	history, err := h.service.History(r.Context(), now.Year(), int(now.Month()), months)
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]dto.MonthlyReportResponse, len(history))
	for i, rep := range history {
		out[i] = dto.NewMonthlyReportResponse(rep, thaidate.MonthName(rep.Year, rep.Month))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *ReportHandler) GetMonth(w http.ResponseWriter, r *http.Request) {
	year, month, err := getMonthFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	rep, err := h.service.GetMonth(r.Context(), year, month)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewMonthlyReportResponse(rep, thaidate.MonthName(year, month)))
}

// MonthDetail returns a month's totals together with its loans, the view
// behind the month drill-down screen.
func (h *ReportHandler) MonthDetail(w http.ResponseWriter, r *http.Request) {
	year, month, err := getMonthFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	rep, loans, err := h.service.MonthDetail(r.Context(), year, month)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.MonthDetailResponse{
		Report: dto.NewMonthlyReportResponse(rep, thaidate.MonthName(year, month)),
		Loans:  dto.NewLoanListResponse(loans),
	})
}

func (h *ReportHandler) RefreshMonth(w http.ResponseWriter, r *http.Request) {
	year, month, err := getMonthFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	rep, err := h.service.RefreshMonth(r.Context(), year, month)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewMonthlyReportResponse(rep, thaidate.MonthName(year, month)))
}

func (h *ReportHandler) GrandTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.service.GrandTotals(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewMonthlyReportResponse(totals, ""))
}

// ExportMonth downloads one month's loans as CSV, named after the Thai
// month as the shop files them.
func (h *ReportHandler) ExportMonth(w http.ResponseWriter, r *http.Request) {
	year, month, err := getMonthFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	headers, rows, err := h.service.ExportMonthRows(r.Context(), year, month)
	if err != nil {
		respondError(w, err)
		return
	}
	respondCSV(w, spreadsheet.MonthExportFilename(year, month), func(w http.ResponseWriter) error {
		return spreadsheet.WriteCSV(w, headers, rows)
	})
}
