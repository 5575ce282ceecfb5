package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"loanshop/internal/api/handler/dto"
	"loanshop/internal/domain/loan"
	"loanshop/internal/pkg/apperrors"
	"loanshop/internal/spreadsheet"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type LoanHandler struct {
	service loan.LoanService
	logger  *slog.Logger
}

func NewLoanHandler(s loan.LoanService, l *slog.Logger) *LoanHandler {
	return &LoanHandler{
		service: s,
		logger:  l.With("component", "LoanHandler"),
	}
}

func getLoanIDFromURL(r *http.Request) (string, error) {
	id := chi.URLParam(r, "loanID")
	if id == "" {
		return "", fmt.Errorf("loanID not found in URL path")
	}
	return id, nil
}

func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req dto.LoanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	created, err := h.service.CreateLoan(r.Context(), req.ToDomain())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, dto.NewLoanResponse(created))
}

func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	id, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	l, err := h.service.GetLoan(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(l))
}

// ListLoans returns the full loan book, or one calendar month of it when
// the "year" and "month" query parameters are present.
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("year") != "" || q.Get("month") != "" {
		year, errY := strconv.Atoi(q.Get("year"))
		month, errM := strconv.Atoi(q.Get("month"))
		if errY != nil || errM != nil {
			respondError(w, fmt.Errorf("%w: year and month must be numbers", apperrors.ErrInvalidArgument))
			return
		}
		loans, err := h.service.ListByMonth(r.Context(), year, month)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, dto.NewLoanListResponse(loans))
		return
	}

	loans, err := h.service.ListLoans(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanListResponse(loans))
}

func (h *LoanHandler) UpdateLoan(w http.ResponseWriter, r *http.Request) {
	id, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var req dto.LoanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	l := req.ToDomain()
	l.ID = id
	updated, err := h.service.UpdateLoan(r.Context(), l)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(updated))
}

func (h *LoanHandler) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	id, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	if err := h.service.DeleteLoan(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetStatus moves a loan between payment states. Moving into
// interest-only rolls the debt into next month as a side effect.
func (h *LoanHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var req dto.StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	updated, err := h.service.SetStatus(r.Context(), id, loan.Status(req.Status))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(updated))
}

func (h *LoanHandler) SetPayAmount(w http.ResponseWriter, r *http.Request) {
	id, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var req dto.PayAmountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	updated, err := h.service.SetPayAmount(r.Context(), id, decimal.NewFromFloat(req.PayAmount))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(updated))
}

func (h *LoanHandler) BulkSetStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.BulkStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	if err := h.service.BulkSetStatus(r.Context(), req.IDs, loan.Status(req.Status)); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"updated": len(req.IDs)})
}

func (h *LoanHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req dto.BulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	if err := h.service.BulkDelete(r.Context(), req.IDs); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"deleted": len(req.IDs)})
}

// ExportLoans downloads the full loan book as CSV.
func (h *LoanHandler) ExportLoans(w http.ResponseWriter, r *http.Request) {
	headers, rows, err := h.service.ExportRows(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondCSV(w, spreadsheet.AllLoansExportFilename(time.Now()), func(w http.ResponseWriter) error {
		return spreadsheet.WriteCSV(w, headers, rows)
	})
}
