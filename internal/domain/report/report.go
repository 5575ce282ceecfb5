package report

import (
	"time"

	"loanshop/internal/domain/loan"
	"loanshop/internal/infrastructure/docstore"

	"github.com/shopspring/decimal"
)

// Collection is the document collection holding pre-aggregated monthly
// summaries.
const Collection = "monthly_reports"

// MonthlyReport is one month's roll-up of the loan book.
type MonthlyReport struct {
	Year           int
	Month          int
	LoanCount      int
	ActiveCount    int
	TotalPrincipal decimal.Decimal
	TotalInterest  decimal.Decimal
	TotalPaid      decimal.Decimal
	StatusCounts   map[loan.Status]int
	UpdatedAt      time.Time
}

// TotalSum is the combined principal and interest outstanding.
func (r *MonthlyReport) TotalSum() decimal.Decimal {
	return r.TotalPrincipal.Add(r.TotalInterest)
}

// Aggregate rolls a month's loans up in a single pass. Closed loans
// count toward the paid total and are excluded from the active count.
func Aggregate(year, month int, loans []*loan.Loan) *MonthlyReport {
	r := &MonthlyReport{
		Year:           year,
		Month:          month,
		TotalPrincipal: decimal.Zero,
		TotalInterest:  decimal.Zero,
		TotalPaid:      decimal.Zero,
		StatusCounts:   make(map[loan.Status]int),
	}
	for _, l := range loans {
		r.LoanCount++
		r.StatusCounts[l.Status]++
		r.TotalPrincipal = r.TotalPrincipal.Add(l.Principal)
		r.TotalInterest = r.TotalInterest.Add(l.Interest)
		if l.Status == loan.StatusClosed {
			// The paid bucket records what the loan was worth, not the
			// closing surcharge the payoff quote adds on top.
			r.TotalPaid = r.TotalPaid.Add(l.Total())
		} else {
			r.ActiveCount++
		}
	}
	return r
}

func (r *MonthlyReport) ToDoc() map[string]any {
	counts := make(map[string]any, len(r.StatusCounts))
	for status, n := range r.StatusCounts {
		counts[string(status)] = n
	}
	return map[string]any{
		"year":           r.Year,
		"month":          r.Month,
		"loanCount":      r.LoanCount,
		"activeCount":    r.ActiveCount,
		"totalPrincipal": r.TotalPrincipal.InexactFloat64(),
		"totalInterest":  r.TotalInterest.InexactFloat64(),
		"totalPaid":      r.TotalPaid.InexactFloat64(),
		"totalSum":       r.TotalSum().InexactFloat64(),
		"statusCounts":   counts,
		"updatedAt":      r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func FromDoc(doc docstore.Document) *MonthlyReport {
	r := &MonthlyReport{
		Year:           int(doc.GetFloat("year")),
		Month:          int(doc.GetFloat("month")),
		LoanCount:      int(doc.GetFloat("loanCount")),
		ActiveCount:    int(doc.GetFloat("activeCount")),
		TotalPrincipal: decimal.NewFromFloat(doc.GetFloat("totalPrincipal")),
		TotalInterest:  decimal.NewFromFloat(doc.GetFloat("totalInterest")),
		TotalPaid:      decimal.NewFromFloat(doc.GetFloat("totalPaid")),
		StatusCounts:   make(map[loan.Status]int),
		UpdatedAt:      doc.GetTime("updatedAt"),
	}
	if counts, ok := doc.Data["statusCounts"].(map[string]any); ok {
		for status, v := range counts {
			if n, ok := v.(float64); ok {
				r.StatusCounts[loan.Status(status)] = int(n)
			} else if n, ok := v.(int); ok {
				r.StatusCounts[loan.Status(status)] = n
			}
		}
	}
	return r
}
