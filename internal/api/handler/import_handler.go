package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"loanshop/internal/api/handler/dto"
	"loanshop/internal/importer"
	"loanshop/internal/pkg/apperrors"
	"loanshop/internal/spreadsheet"
)

// maxUploadSize bounds spreadsheet uploads; the shop's files are a few
// hundred kilobytes at most.
const maxUploadSize = 16 << 20

type ImportHandler struct {
	pipeline *importer.Pipeline
	logger   *slog.Logger
}

func NewImportHandler(p *importer.Pipeline, l *slog.Logger) *ImportHandler {
	return &ImportHandler{
		pipeline: p,
		logger:   l.With("component", "ImportHandler"),
	}
}

// ImportCustomers accepts a multipart upload under the "file" field.
// Without "commit=true" it returns the staged preview; with it the rows
// are written.
func (h *ImportHandler) ImportCustomers(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.readRows(w, r)
	if !ok {
		return
	}

	if !commitRequested(r) {
		preview, err := h.pipeline.StageCustomerRows(r.Context(), rows)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, preview)
		return
	}

	result, err := h.pipeline.RunCustomerImport(r.Context(), rows)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewImportResultResponse(result))
}

// ImportLoans accepts a multipart upload under the "file" field, with
// the same preview-then-commit flow as ImportCustomers.
func (h *ImportHandler) ImportLoans(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.readRows(w, r)
	if !ok {
		return
	}

	if !commitRequested(r) {
		preview, err := h.pipeline.StageLoanRows(r.Context(), rows)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, preview)
		return
	}

	result, err := h.pipeline.RunLoanImport(r.Context(), rows)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewImportResultResponse(result))
}

func commitRequested(r *http.Request) bool {
	return r.URL.Query().Get("commit") == "true"
}

func (h *ImportHandler) readRows(w http.ResponseWriter, r *http.Request) ([]spreadsheet.Row, bool) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, fmt.Errorf("%w: parsing multipart form: %v", apperrors.ErrInvalidArgument, err))
		return nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, fmt.Errorf("%w: missing upload field %q", apperrors.ErrInvalidArgument, "file"))
		return nil, false
	}
	defer file.Close()

	rows, err := spreadsheet.ReadFile(header.Filename, file)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Unreadable spreadsheet upload",
			slog.String("filename", header.Filename), slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: reading %q: %v", apperrors.ErrInvalidArgument, header.Filename, err))
		return nil, false
	}
	return rows, true
}
