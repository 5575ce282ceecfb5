package loan

import (
	"strings"
	"time"

	"loanshop/internal/infrastructure/docstore"

	"github.com/shopspring/decimal"
)

// Collection is the document collection holding loan records.
const Collection = "loans"

// DefaultInterestRate applies when a loan carries no usable rate.
var DefaultInterestRate = decimal.NewFromInt(20)

// closingRate is the fixed closing formula: principal plus a 15%
// surcharge, independent of the loan's own interest rate.
var closingRate = decimal.RequireFromString("1.15")

type Status string

const (
	StatusEmpty             Status = "empty"
	StatusInterestOnly      Status = "interest-only"
	StatusPrincipalInterest Status = "principal+interest"
	StatusClosed            Status = "closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusEmpty, StatusInterestOnly, StatusPrincipalInterest, StatusClosed:
		return true
	}
	return false
}

// FoldStatus maps legacy free-text status values onto the canonical
// four-state set. This is the migration shim for spreadsheets and old
// records written before the enumeration settled; unmatched text is an
// empty (not-yet-paying) loan.
func FoldStatus(raw string) Status {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return StatusEmpty
	}
	if canonical := Status(s); canonical.Valid() {
		return canonical
	}

	switch {
	case containsAny(s, "close", "paid", "return", "คืนแล้ว", "ปิดยอด", "ปิดแล้ว", "จ่ายครบ"):
		return StatusClosed
	case containsAny(s, "principal", "ต้น+ดอก", "ต้นดอก", "คืนต้น"):
		return StatusPrincipalInterest
	case containsAny(s, "interest", "ดอก"):
		return StatusInterestOnly
	}
	return StatusEmpty
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// Loan is the central transactional entity. Dates are canonical
// YYYY-MM-DD strings, the form the store range-queries on.
type Loan struct {
	ID           string
	CustomerID   string
	Nickname     string
	NameSurname  string
	LoanDate     string
	ReturnDate   string
	Principal    decimal.Decimal
	InterestRate decimal.Decimal
	Interest     decimal.Decimal
	InterestType string
	// PayAmount is the manual override used in the principal+interest
	// state; zero means "no override".
	PayAmount decimal.Decimal
	Status    Status
	Summary   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Total is the derived principal + interest amount.
func (l *Loan) Total() decimal.Decimal {
	return l.Principal.Add(l.Interest)
}

// DeriveInterest fills the interest amount from principal × rate/100
// when no explicit value was supplied, defaulting the rate to 20%.
func (l *Loan) DeriveInterest() {
	if !l.Interest.IsZero() {
		return
	}
	if l.InterestRate.IsZero() {
		l.InterestRate = DefaultInterestRate
	}
	l.Interest = l.Principal.Mul(l.InterestRate).Div(decimal.NewFromInt(100))
}

// CalculatePayAmount returns what the customer owes right now, by state:
// nothing for an empty loan, the interest for an interest-only payment,
// the (overridable) full total when principal and interest are due, and
// principal plus the fixed 15% closing surcharge on settlement.
func (l *Loan) CalculatePayAmount() decimal.Decimal {
	switch l.Status {
	case StatusInterestOnly:
		return l.Interest
	case StatusPrincipalInterest:
		if l.PayAmount.IsPositive() {
			return l.PayAmount
		}
		return l.Total()
	case StatusClosed:
		return l.Principal.Mul(closingRate)
	default:
		return decimal.Zero
	}
}

func (l *Loan) ToDoc() map[string]any {
	return map[string]any{
		"customerId":   l.CustomerID,
		"nickname":     l.Nickname,
		"nameSurname":  l.NameSurname,
		"loanDate":     l.LoanDate,
		"returnDate":   l.ReturnDate,
		"principal":    l.Principal.InexactFloat64(),
		"interestRate": l.InterestRate.InexactFloat64(),
		"interest":     l.Interest.InexactFloat64(),
		"interestType": l.InterestType,
		"payAmount":    l.PayAmount.InexactFloat64(),
		"status":       string(l.Status),
		"summary":      l.Summary,
		"createdAt":    l.CreatedAt.UTC().Format(time.RFC3339),
		"updatedAt":    l.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func FromDoc(doc docstore.Document) *Loan {
	return &Loan{
		ID:           doc.ID,
		CustomerID:   doc.GetString("customerId"),
		Nickname:     doc.GetString("nickname"),
		NameSurname:  doc.GetString("nameSurname"),
		LoanDate:     doc.GetString("loanDate"),
		ReturnDate:   doc.GetString("returnDate"),
		Principal:    decimal.NewFromFloat(doc.GetFloat("principal")),
		InterestRate: decimal.NewFromFloat(doc.GetFloat("interestRate")),
		Interest:     decimal.NewFromFloat(doc.GetFloat("interest")),
		InterestType: doc.GetString("interestType"),
		PayAmount:    decimal.NewFromFloat(doc.GetFloat("payAmount")),
		Status:       FoldStatus(doc.GetString("status")),
		Summary:      doc.GetString("summary"),
		CreatedAt:    doc.GetTime("createdAt"),
		UpdatedAt:    doc.GetTime("updatedAt"),
	}
}
