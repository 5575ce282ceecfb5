package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"loanshop/internal/api/handler/dto"
	"loanshop/internal/domain/customer"
	"loanshop/internal/pkg/apperrors"
	"loanshop/internal/spreadsheet"

	"github.com/go-chi/chi/v5"
)

type CustomerHandler struct {
	service customer.CustomerService
	logger  *slog.Logger
}

func NewCustomerHandler(s customer.CustomerService, l *slog.Logger) *CustomerHandler {
	return &CustomerHandler{
		service: s,
		logger:  l.With("component", "CustomerHandler"),
	}
}

func getCustomerIDFromURL(r *http.Request) (string, error) {
	id := chi.URLParam(r, "customerID")
	if id == "" {
		return "", fmt.Errorf("customerID not found in URL path")
	}
	return id, nil
}

func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req dto.CustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	created, err := h.service.CreateCustomer(r.Context(), req.ToDomain())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, dto.NewCustomerResponse(created))
}

func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := getCustomerIDFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	cust, err := h.service.GetCustomer(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(cust))
}

// ListCustomers returns every customer, or a filtered set when the
// "search" query parameter is present.
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("search")

	var (
		customers []*customer.Customer
		err       error
	)
	if term != "" {
		customers, err = h.service.SearchCustomers(r.Context(), term)
	} else {
		customers, err = h.service.ListCustomers(r.Context())
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewCustomerListResponse(customers))
}

func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := getCustomerIDFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var req dto.CustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	cust := req.ToDomain()
	cust.ID = id
	updated, err := h.service.UpdateCustomer(r.Context(), cust)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(updated))
}

func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := getCustomerIDFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	if err := h.service.DeleteCustomer(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportCustomers downloads the whole customer book as a CSV usable in
// Excel (BOM included, ID cards masked).
func (h *CustomerHandler) ExportCustomers(w http.ResponseWriter, r *http.Request) {
	headers, rows, err := h.service.ExportRows(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondCSV(w, spreadsheet.CustomerExportFilename(time.Now()), func(w http.ResponseWriter) error {
		return spreadsheet.WriteCSV(w, headers, rows)
	})
}
