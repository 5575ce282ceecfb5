package dto

import (
	"time"

	"loanshop/internal/domain/customer"
	"loanshop/internal/domain/loan"
	"loanshop/internal/domain/report"
	"loanshop/internal/importer"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	return validate.Struct(r)
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

type CustomerRequest struct {
	Nickname    string `json:"nickname" validate:"required"`
	NameSurname string `json:"nameSurname"`
	IDCard      string `json:"idCard" validate:"omitempty,numeric,len=13"`
	Telephone   string `json:"telephone"`
	Birthday    string `json:"birthday"`
	Address     string `json:"address"`
}

func (r *CustomerRequest) Validate() error {
	return validate.Struct(r)
}

func (r *CustomerRequest) ToDomain() *customer.Customer {
	return &customer.Customer{
		Nickname:    r.Nickname,
		NameSurname: r.NameSurname,
		IDCard:      r.IDCard,
		Telephone:   r.Telephone,
		Birthday:    r.Birthday,
		Address:     r.Address,
	}
}

type CustomerResponse struct {
	ID          string    `json:"id"`
	Nickname    string    `json:"nickname"`
	NameSurname string    `json:"nameSurname"`
	IDCard      string    `json:"idCard"`
	Telephone   string    `json:"telephone"`
	Birthday    string    `json:"birthday"`
	Address     string    `json:"address"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewCustomerResponse(c *customer.Customer) CustomerResponse {
	return CustomerResponse{
		ID:          c.ID,
		Nickname:    c.Nickname,
		NameSurname: c.NameSurname,
		IDCard:      c.MaskedIDCard(),
		Telephone:   c.Telephone,
		Birthday:    c.Birthday,
		Address:     c.Address,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func NewCustomerListResponse(customers []*customer.Customer) []CustomerResponse {
	out := make([]CustomerResponse, len(customers))
	for i, c := range customers {
		out[i] = NewCustomerResponse(c)
	}
	return out
}

type LoanRequest struct {
	Nickname     string  `json:"nickname" validate:"required"`
	NameSurname  string  `json:"nameSurname"`
	LoanDate     string  `json:"loanDate" validate:"required"`
	ReturnDate   string  `json:"returnDate"`
	Principal    float64 `json:"principal" validate:"gte=0"`
	InterestRate float64 `json:"interestRate" validate:"gte=0"`
	Interest     float64 `json:"interest" validate:"gte=0"`
	InterestType string  `json:"interestType"`
	Status       string  `json:"status"`
	Summary      string  `json:"summary"`
}

func (r *LoanRequest) Validate() error {
	return validate.Struct(r)
}

func (r *LoanRequest) ToDomain() *loan.Loan {
	return &loan.Loan{
		Nickname:     r.Nickname,
		NameSurname:  r.NameSurname,
		LoanDate:     r.LoanDate,
		ReturnDate:   r.ReturnDate,
		Principal:    decimal.NewFromFloat(r.Principal),
		InterestRate: decimal.NewFromFloat(r.InterestRate),
		Interest:     decimal.NewFromFloat(r.Interest),
		InterestType: r.InterestType,
		Status:       loan.FoldStatus(r.Status),
		Summary:      r.Summary,
	}
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (r *StatusRequest) Validate() error {
	return validate.Struct(r)
}

type PayAmountRequest struct {
	PayAmount float64 `json:"payAmount" validate:"gte=0"`
}

func (r *PayAmountRequest) Validate() error {
	return validate.Struct(r)
}

type BulkStatusRequest struct {
	IDs    []string `json:"ids" validate:"required,min=1,dive,required"`
	Status string   `json:"status" validate:"required"`
}

func (r *BulkStatusRequest) Validate() error {
	return validate.Struct(r)
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

func (r *BulkDeleteRequest) Validate() error {
	return validate.Struct(r)
}

type LoanResponse struct {
	ID           string    `json:"id"`
	CustomerID   string    `json:"customerId,omitempty"`
	Nickname     string    `json:"nickname"`
	NameSurname  string    `json:"nameSurname"`
	LoanDate     string    `json:"loanDate"`
	ReturnDate   string    `json:"returnDate"`
	Principal    string    `json:"principal"`
	InterestRate string    `json:"interestRate"`
	Interest     string    `json:"interest"`
	InterestType string    `json:"interestType"`
	Total        string    `json:"total"`
	PayAmount    string    `json:"payAmount"`
	Status       string    `json:"status"`
	Summary      string    `json:"summary,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func NewLoanResponse(l *loan.Loan) LoanResponse {
	return LoanResponse{
		ID:           l.ID,
		CustomerID:   l.CustomerID,
		Nickname:     l.Nickname,
		NameSurname:  l.NameSurname,
		LoanDate:     l.LoanDate,
		ReturnDate:   l.ReturnDate,
		Principal:    l.Principal.StringFixed(2),
		InterestRate: l.InterestRate.String(),
		Interest:     l.Interest.StringFixed(2),
		InterestType: l.InterestType,
		Total:        l.Total().StringFixed(2),
		PayAmount:    l.CalculatePayAmount().StringFixed(2),
		Status:       string(l.Status),
		Summary:      l.Summary,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

func NewLoanListResponse(loans []*loan.Loan) []LoanResponse {
	out := make([]LoanResponse, len(loans))
	for i, l := range loans {
		out[i] = NewLoanResponse(l)
	}
	return out
}

type MonthlyReportResponse struct {
	Year           int            `json:"year"`
	Month          int            `json:"month"`
	MonthName      string         `json:"monthName"`
	LoanCount      int            `json:"loanCount"`
	ActiveCount    int            `json:"activeCount"`
	TotalPrincipal string         `json:"totalPrincipal"`
	TotalInterest  string         `json:"totalInterest"`
	TotalPaid      string         `json:"totalPaid"`
	TotalSum       string         `json:"totalSum"`
	StatusCounts   map[string]int `json:"statusCounts"`
	UpdatedAt      time.Time      `json:"updatedAt,omitempty"`
}

func NewMonthlyReportResponse(r *report.MonthlyReport, monthName string) MonthlyReportResponse {
	counts := make(map[string]int, len(r.StatusCounts))
	for status, n := range r.StatusCounts {
		counts[string(status)] = n
	}
	return MonthlyReportResponse{
		Year:           r.Year,
		Month:          r.Month,
		MonthName:      monthName,
		LoanCount:      r.LoanCount,
		ActiveCount:    r.ActiveCount,
		TotalPrincipal: r.TotalPrincipal.StringFixed(2),
		TotalInterest:  r.TotalInterest.StringFixed(2),
		TotalPaid:      r.TotalPaid.StringFixed(2),
		TotalSum:       r.TotalSum().StringFixed(2),
		StatusCounts:   counts,
		UpdatedAt:      r.UpdatedAt,
	}
}

type MonthDetailResponse struct {
	Report MonthlyReportResponse `json:"report"`
	Loans  []LoanResponse        `json:"loans"`
}

type ImportResultResponse struct {
	Success int                 `json:"success"`
	Failed  int                 `json:"failed"`
	Errors  []importer.RowError `json:"errors,omitempty"`
}

func NewImportResultResponse(r *importer.Result) ImportResultResponse {
	return ImportResultResponse{Success: r.Success, Failed: r.Failed, Errors: r.Errors}
}
