package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"loanshop/internal/api/handler/dto"
	"loanshop/internal/domain/loan"
	"loanshop/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLoanService struct {
	mock.Mock
}

func (_m *MockLoanService) CreateLoan(ctx context.Context, l *loan.Loan) (*loan.Loan, error) {
	args := _m.Called(ctx, l)
	out, _ := args.Get(0).(*loan.Loan)
	return out, args.Error(1)
}

func (_m *MockLoanService) GetLoan(ctx context.Context, id string) (*loan.Loan, error) {
	args := _m.Called(ctx, id)
	out, _ := args.Get(0).(*loan.Loan)
	return out, args.Error(1)
}

func (_m *MockLoanService) UpdateLoan(ctx context.Context, l *loan.Loan) (*loan.Loan, error) {
	args := _m.Called(ctx, l)
	out, _ := args.Get(0).(*loan.Loan)
	return out, args.Error(1)
}

func (_m *MockLoanService) DeleteLoan(ctx context.Context, id string) error {
	args := _m.Called(ctx, id)
	return args.Error(0)
}

func (_m *MockLoanService) ListLoans(ctx context.Context) ([]*loan.Loan, error) {
	args := _m.Called(ctx)
	out, _ := args.Get(0).([]*loan.Loan)
	return out, args.Error(1)
}

func (_m *MockLoanService) ListByMonth(ctx context.Context, year, month int) ([]*loan.Loan, error) {
	args := _m.Called(ctx, year, month)
	out, _ := args.Get(0).([]*loan.Loan)
	return out, args.Error(1)
}

func (_m *MockLoanService) SetStatus(ctx context.Context, id string, status loan.Status) (*loan.Loan, error) {
	args := _m.Called(ctx, id, status)
	out, _ := args.Get(0).(*loan.Loan)
	return out, args.Error(1)
}

func (_m *MockLoanService) SetPayAmount(ctx context.Context, id string, amount decimal.Decimal) (*loan.Loan, error) {
	args := _m.Called(ctx, id, amount)
	out, _ := args.Get(0).(*loan.Loan)
	return out, args.Error(1)
}

func (_m *MockLoanService) BulkSetStatus(ctx context.Context, ids []string, status loan.Status) error {
	args := _m.Called(ctx, ids, status)
	return args.Error(0)
}

func (_m *MockLoanService) BulkDelete(ctx context.Context, ids []string) error {
	args := _m.Called(ctx, ids)
	return args.Error(0)
}

func (_m *MockLoanService) ExportRows(ctx context.Context) ([]string, [][]string, error) {
	args := _m.Called(ctx)
	headers, _ := args.Get(0).([]string)
	rows, _ := args.Get(1).([][]string)
	return headers, rows, args.Error(2)
}

func TestLoanHandler_CreateLoan(t *testing.T) {
	t.Run("valid request creates with computed amounts", func(t *testing.T) {
		svc := new(MockLoanService)
		h := NewLoanHandler(svc, logger)

		svc.On("CreateLoan", mock.Anything, mock.MatchedBy(func(l *loan.Loan) bool {
			return l.Nickname == "Som" && l.LoanDate == "2025-01-15"
		})).Return(&loan.Loan{
			ID:           "loan-1",
			Nickname:     "Som",
			LoanDate:     "2025-01-15",
			ReturnDate:   "2025-02-15",
			Principal:    decimal.NewFromInt(10000),
			InterestRate: decimal.NewFromInt(20),
			Interest:     decimal.NewFromInt(2000),
		}, nil).Once()

		body := `{"nickname":"Som","loanDate":"2025-01-15","principal":10000}`
		req := httptest.NewRequest(http.MethodPost, "/loans", strings.NewReader(body))
		w := httptest.NewRecorder()
		h.CreateLoan(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		var resp dto.LoanResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "loan-1", resp.ID)
		assert.Equal(t, "10000.00", resp.Principal)
		assert.Equal(t, "12000.00", resp.Total)
		svc.AssertExpectations(t)
	})

	t.Run("missing loan date is a bad request", func(t *testing.T) {
		svc := new(MockLoanService)
		h := NewLoanHandler(svc, logger)

		req := httptest.NewRequest(http.MethodPost, "/loans", strings.NewReader(`{"nickname":"Som"}`))
		w := httptest.NewRecorder()
		h.CreateLoan(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "CreateLoan", mock.Anything, mock.Anything)
	})

	t.Run("negative principal is a bad request", func(t *testing.T) {
		svc := new(MockLoanService)
		h := NewLoanHandler(svc, logger)

		body := `{"nickname":"Som","loanDate":"2025-01-15","principal":-5}`
		req := httptest.NewRequest(http.MethodPost, "/loans", strings.NewReader(body))
		w := httptest.NewRecorder()
		h.CreateLoan(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLoanHandler_ListLoans(t *testing.T) {
	t.Run("year and month filter a single month", func(t *testing.T) {
		svc := new(MockLoanService)
		h := NewLoanHandler(svc, logger)

		svc.On("ListByMonth", mock.Anything, 2025, 1).
			Return([]*loan.Loan{{ID: "loan-1", LoanDate: "2025-01-15"}}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/loans?year=2025&month=1", nil)
		w := httptest.NewRecorder()
		h.ListLoans(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp []dto.LoanResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Len(t, resp, 1)
		svc.AssertNotCalled(t, "ListLoans", mock.Anything)
	})

	t.Run("non-numeric month is a bad request", func(t *testing.T) {
		svc := new(MockLoanService)
		h := NewLoanHandler(svc, logger)

		req := httptest.NewRequest(http.MethodGet, "/loans?year=2025&month=january", nil)
		w := httptest.NewRecorder()
		h.ListLoans(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no filters lists everything", func(t *testing.T) {
		svc := new(MockLoanService)
		h := NewLoanHandler(svc, logger)

		svc.On("ListLoans", mock.Anything).
			Return([]*loan.Loan{{ID: "a"}, {ID: "b"}}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/loans", nil)
		w := httptest.NewRecorder()
		h.ListLoans(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})
}

func TestLoanHandler_SetStatus(t *testing.T) {
	t.Run("updates the status", func(t *testing.T) {
		svc := new(MockLoanService)
		h := NewLoanHandler(svc, logger)

		svc.On("SetStatus", mock.Anything, "loan-1", loan.StatusInterestOnly).
			Return(&loan.Loan{ID: "loan-1", Status: loan.StatusInterestOnly}, nil).Once()

		body := `{"status":"interest-only"}`
		req := withURLParam(httptest.NewRequest(http.MethodPut, "/loans/loan-1/status", strings.NewReader(body)), "loanID", "loan-1")
		w := httptest.NewRecorder()
		h.SetStatus(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.LoanResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, string(loan.StatusInterestOnly), resp.Status)
	})

	t.Run("unknown loan maps to 404", func(t *testing.T) {
		svc := new(MockLoanService)
		h := NewLoanHandler(svc, logger)

		svc.On("SetStatus", mock.Anything, "missing", mock.Anything).
			Return(nil, apperrors.ErrNotFound).Once()

		body := `{"status":"closed"}`
		req := withURLParam(httptest.NewRequest(http.MethodPut, "/loans/missing/status", strings.NewReader(body)), "loanID", "missing")
		w := httptest.NewRecorder()
		h.SetStatus(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestLoanHandler_SetPayAmount(t *testing.T) {
	svc := new(MockLoanService)
	h := NewLoanHandler(svc, logger)

	svc.On("SetPayAmount", mock.Anything, "loan-1", mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromInt(2500))
	})).Return(&loan.Loan{ID: "loan-1", PayAmount: decimal.NewFromInt(2500), Status: loan.StatusPrincipalInterest}, nil).Once()

	body := `{"payAmount":2500}`
	req := withURLParam(httptest.NewRequest(http.MethodPut, "/loans/loan-1/payamount", strings.NewReader(body)), "loanID", "loan-1")
	w := httptest.NewRecorder()
	h.SetPayAmount(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.LoanResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "2500.00", resp.PayAmount)
	svc.AssertExpectations(t)
}

func TestLoanHandler_BulkSetStatus(t *testing.T) {
	t.Run("updates every id", func(t *testing.T) {
		svc := new(MockLoanService)
		h := NewLoanHandler(svc, logger)

		svc.On("BulkSetStatus", mock.Anything, []string{"a", "b"}, loan.StatusClosed).
			Return(nil).Once()

		body := `{"ids":["a","b"],"status":"closed"}`
		req := httptest.NewRequest(http.MethodPost, "/loans/bulk/status", strings.NewReader(body))
		w := httptest.NewRecorder()
		h.BulkSetStatus(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp map[string]int
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, 2, resp["updated"])
		svc.AssertExpectations(t)
	})

	t.Run("empty ids is a bad request", func(t *testing.T) {
		svc := new(MockLoanService)
		h := NewLoanHandler(svc, logger)

		body := `{"ids":[],"status":"closed"}`
		req := httptest.NewRequest(http.MethodPost, "/loans/bulk/status", strings.NewReader(body))
		w := httptest.NewRecorder()
		h.BulkSetStatus(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "BulkSetStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestLoanHandler_BulkDelete(t *testing.T) {
	svc := new(MockLoanService)
	h := NewLoanHandler(svc, logger)

	svc.On("BulkDelete", mock.Anything, []string{"a", "b", "c"}).Return(nil).Once()

	body := `{"ids":["a","b","c"]}`
	req := httptest.NewRequest(http.MethodPost, "/loans/bulk/delete", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.BulkDelete(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]int
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 3, resp["deleted"])
	svc.AssertExpectations(t)
}

func TestLoanHandler_ExportLoans(t *testing.T) {
	svc := new(MockLoanService)
	h := NewLoanHandler(svc, logger)

	svc.On("ExportRows", mock.Anything).Return(
		[]string{"No.", "Nickname", "วันที่กู้"},
		[][]string{{"1", "Som", "15/1/2568"}},
		nil,
	).Once()

	req := httptest.NewRequest(http.MethodGet, "/loans/export", nil)
	w := httptest.NewRecorder()
	h.ExportLoans(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "15/1/2568")
}
