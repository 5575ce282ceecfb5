package loan_test

import (
	"testing"

	"loanshop/internal/domain/loan"
	"loanshop/internal/infrastructure/docstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFoldStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want loan.Status
	}{
		{"", loan.StatusEmpty},
		{"   ", loan.StatusEmpty},
		{"empty", loan.StatusEmpty},
		{"interest-only", loan.StatusInterestOnly},
		{"principal+interest", loan.StatusPrincipalInterest},
		{"closed", loan.StatusClosed},
		{"Closed", loan.StatusClosed},
		{"paid in full", loan.StatusClosed},
		{"returned", loan.StatusClosed},
		{"คืนแล้ว", loan.StatusClosed},
		{"ปิดยอดแล้ว", loan.StatusClosed},
		{"จ่ายต้น+ดอก", loan.StatusPrincipalInterest},
		{"คืนต้นบางส่วน", loan.StatusPrincipalInterest},
		{"ต่อดอก", loan.StatusInterestOnly},
		{"interest only", loan.StatusInterestOnly},
		{"จ่ายดอกแล้ว", loan.StatusInterestOnly},
		{"something else", loan.StatusEmpty},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, loan.FoldStatus(tt.raw), "raw=%q", tt.raw)
	}
}

func TestLoan_CalculatePayAmount(t *testing.T) {
	base := loan.Loan{
		Principal: decimal.NewFromInt(10000),
		Interest:  decimal.NewFromInt(2000),
	}

	t.Run("EmptyOwesNothing", func(t *testing.T) {
		l := base
		l.Status = loan.StatusEmpty
		assert.True(t, l.CalculatePayAmount().IsZero())
	})

	t.Run("InterestOnlyOwesInterest", func(t *testing.T) {
		l := base
		l.Status = loan.StatusInterestOnly
		assert.True(t, l.CalculatePayAmount().Equal(decimal.NewFromInt(2000)))
	})

	t.Run("PrincipalInterestOwesTotal", func(t *testing.T) {
		l := base
		l.Status = loan.StatusPrincipalInterest
		assert.True(t, l.CalculatePayAmount().Equal(decimal.NewFromInt(12000)))
	})

	t.Run("PrincipalInterestHonorsOverride", func(t *testing.T) {
		l := base
		l.Status = loan.StatusPrincipalInterest
		l.PayAmount = decimal.NewFromInt(11500)
		assert.True(t, l.CalculatePayAmount().Equal(decimal.NewFromInt(11500)))
	})

	t.Run("ClosedOwesPrincipalPlusSurcharge", func(t *testing.T) {
		l := base
		l.Status = loan.StatusClosed
		assert.True(t, l.CalculatePayAmount().Equal(decimal.NewFromInt(11500)))
	})
}

func TestLoan_DeriveInterest(t *testing.T) {
	t.Run("DefaultsRateToTwentyPercent", func(t *testing.T) {
		l := loan.Loan{Principal: decimal.NewFromInt(10000)}
		l.DeriveInterest()
		assert.True(t, l.InterestRate.Equal(decimal.NewFromInt(20)))
		assert.True(t, l.Interest.Equal(decimal.NewFromInt(2000)))
	})

	t.Run("UsesExplicitRate", func(t *testing.T) {
		l := loan.Loan{Principal: decimal.NewFromInt(5000), InterestRate: decimal.NewFromInt(10)}
		l.DeriveInterest()
		assert.True(t, l.Interest.Equal(decimal.NewFromInt(500)))
	})

	t.Run("KeepsExplicitInterest", func(t *testing.T) {
		l := loan.Loan{Principal: decimal.NewFromInt(5000), Interest: decimal.NewFromInt(750)}
		l.DeriveInterest()
		assert.True(t, l.Interest.Equal(decimal.NewFromInt(750)))
	})
}

func TestLoan_DocRoundTrip(t *testing.T) {
	l := &loan.Loan{
		ID:           "loan-1",
		CustomerID:   "cust-1",
		Nickname:     "Som",
		NameSurname:  "Somsri Jaidee",
		LoanDate:     "2025-01-15",
		ReturnDate:   "2025-02-15",
		Principal:    decimal.NewFromInt(10000),
		InterestRate: decimal.NewFromInt(20),
		Interest:     decimal.NewFromInt(2000),
		InterestType: "รายเดือน",
		Status:       loan.StatusInterestOnly,
		Summary:      "note",
	}

	got := loan.FromDoc(docstore.Document{ID: "loan-1", Data: l.ToDoc()})

	assert.Equal(t, l.Nickname, got.Nickname)
	assert.Equal(t, l.LoanDate, got.LoanDate)
	assert.Equal(t, l.ReturnDate, got.ReturnDate)
	assert.True(t, got.Principal.Equal(l.Principal))
	assert.True(t, got.Interest.Equal(l.Interest))
	assert.Equal(t, loan.StatusInterestOnly, got.Status)
	assert.Equal(t, "note", got.Summary)
}

func TestFromDoc_FoldsLegacyStatus(t *testing.T) {
	got := loan.FromDoc(docstore.Document{ID: "x", Data: map[string]any{
		"nickname": "Som",
		"status":   "จ่ายดอกแล้ว",
	}})
	assert.Equal(t, loan.StatusInterestOnly, got.Status)
}
