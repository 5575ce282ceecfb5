package report_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"loanshop/internal/domain/loan"
	"loanshop/internal/domain/report"
	"loanshop/internal/infrastructure/docstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	loans := []*loan.Loan{
		{Nickname: "Som", Principal: decimal.NewFromInt(10000), Interest: decimal.NewFromInt(2000), Status: loan.StatusEmpty},
		{Nickname: "Lek", Principal: decimal.NewFromInt(5000), Interest: decimal.NewFromInt(1000), Status: loan.StatusInterestOnly},
		{Nickname: "Nid", Principal: decimal.NewFromInt(8000), Interest: decimal.NewFromInt(1600), Status: loan.StatusClosed},
	}

	r := report.Aggregate(2025, 1, loans)

	assert.Equal(t, 2025, r.Year)
	assert.Equal(t, 1, r.Month)
	assert.Equal(t, 3, r.LoanCount)
	assert.Equal(t, 2, r.ActiveCount)
	assert.True(t, r.TotalPrincipal.Equal(decimal.NewFromInt(23000)))
	assert.True(t, r.TotalInterest.Equal(decimal.NewFromInt(4600)))
	assert.True(t, r.TotalSum().Equal(decimal.NewFromInt(27600)))
	// Closed loans contribute their principal plus interest; the payoff
	// surcharge is not part of the monthly aggregate.
	assert.True(t, r.TotalPaid.Equal(decimal.NewFromInt(9600)))
	assert.Equal(t, 1, r.StatusCounts[loan.StatusClosed])
	assert.Equal(t, 1, r.StatusCounts[loan.StatusInterestOnly])
}

func TestAggregate_EmptyMonth(t *testing.T) {
	r := report.Aggregate(2025, 3, nil)

	assert.Equal(t, 0, r.LoanCount)
	assert.True(t, r.TotalSum().IsZero())
}

func TestMonthlyReport_DocRoundTrip(t *testing.T) {
	r := report.Aggregate(2025, 1, []*loan.Loan{
		{Principal: decimal.NewFromInt(10000), Interest: decimal.NewFromInt(2000), Status: loan.StatusInterestOnly},
	})

	got := report.FromDoc(docstore.Document{ID: "2025-01", Data: r.ToDoc()})

	assert.Equal(t, r.Year, got.Year)
	assert.Equal(t, r.Month, got.Month)
	assert.Equal(t, r.LoanCount, got.LoanCount)
	assert.True(t, got.TotalPrincipal.Equal(r.TotalPrincipal))
	assert.Equal(t, 1, got.StatusCounts[loan.StatusInterestOnly])
}

func newFixture(t *testing.T) (loan.Repository, report.ReportService) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := docstore.NewMemoryStore()
	loanRepo := loan.NewRepository(store, logger)
	reportRepo := report.NewRepository(store, logger)
	return loanRepo, report.NewReportService(reportRepo, loanRepo, logger)
}

func seedLoan(t *testing.T, repo loan.Repository, nickname, date string, principal int64, status loan.Status) {
	t.Helper()
	l := &loan.Loan{
		Nickname:  nickname,
		LoanDate:  date,
		Principal: decimal.NewFromInt(principal),
		Status:    status,
	}
	l.DeriveInterest()
	require.NoError(t, repo.Create(context.Background(), l))
}

func TestReportService_RefreshAndGet(t *testing.T) {
	ctx := context.Background()
	loanRepo, service := newFixture(t)

	seedLoan(t, loanRepo, "Som", "2025-01-15", 10000, loan.StatusEmpty)
	seedLoan(t, loanRepo, "Lek", "2025-01-20", 5000, loan.StatusClosed)
	seedLoan(t, loanRepo, "Nid", "2025-02-01", 7000, loan.StatusEmpty)

	refreshed, err := service.RefreshMonth(ctx, 2025, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, refreshed.LoanCount)
	assert.True(t, refreshed.TotalPrincipal.Equal(decimal.NewFromInt(15000)))

	stored, err := service.GetMonth(ctx, 2025, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.LoanCount)
	assert.False(t, stored.UpdatedAt.IsZero())

	// February was never refreshed; GetMonth aggregates live.
	live, err := service.GetMonth(ctx, 2025, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, live.LoanCount)
	assert.True(t, live.TotalPrincipal.Equal(decimal.NewFromInt(7000)))
}

func TestReportService_RefreshIsIdempotent(t *testing.T) {
	ctx := context.Background()
	loanRepo, service := newFixture(t)
	seedLoan(t, loanRepo, "Som", "2025-01-15", 10000, loan.StatusEmpty)

	_, err := service.RefreshMonth(ctx, 2025, 1)
	require.NoError(t, err)
	_, err = service.RefreshMonth(ctx, 2025, 1)
	require.NoError(t, err)

	reports, err := service.ListReports(ctx)
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestReportService_History(t *testing.T) {
	ctx := context.Background()
	loanRepo, service := newFixture(t)

	seedLoan(t, loanRepo, "Som", "2024-11-10", 1000, loan.StatusEmpty)
	seedLoan(t, loanRepo, "Lek", "2024-12-10", 2000, loan.StatusEmpty)
	seedLoan(t, loanRepo, "Nid", "2025-01-10", 3000, loan.StatusEmpty)

	// Window crosses the year boundary, oldest first.
	history, err := service.History(ctx, 2025, 1, 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 2024, history[0].Year)
	assert.Equal(t, 11, history[0].Month)
	assert.Equal(t, 12, history[1].Month)
	assert.Equal(t, 2025, history[2].Year)
	assert.Equal(t, 1, history[2].Month)
	assert.True(t, history[2].TotalPrincipal.Equal(decimal.NewFromInt(3000)))
}

func TestReportService_ListReports_SortedNewestFirst(t *testing.T) {
	ctx := context.Background()
	loanRepo, service := newFixture(t)

	seedLoan(t, loanRepo, "Som", "2024-12-10", 1000, loan.StatusEmpty)
	seedLoan(t, loanRepo, "Lek", "2025-01-10", 2000, loan.StatusEmpty)
	seedLoan(t, loanRepo, "Nid", "2025-02-10", 3000, loan.StatusEmpty)

	for _, ym := range [][2]int{{2024, 12}, {2025, 2}, {2025, 1}} {
		_, err := service.RefreshMonth(ctx, ym[0], ym[1])
		require.NoError(t, err)
	}

	reports, err := service.ListReports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, [2]int{2025, 2}, [2]int{reports[0].Year, reports[0].Month})
	assert.Equal(t, [2]int{2025, 1}, [2]int{reports[1].Year, reports[1].Month})
	assert.Equal(t, [2]int{2024, 12}, [2]int{reports[2].Year, reports[2].Month})
}

func TestReportService_GrandTotals(t *testing.T) {
	ctx := context.Background()
	loanRepo, service := newFixture(t)

	seedLoan(t, loanRepo, "Som", "2025-01-10", 10000, loan.StatusEmpty)
	seedLoan(t, loanRepo, "Lek", "2025-02-10", 5000, loan.StatusEmpty)
	for _, ym := range [][2]int{{2025, 1}, {2025, 2}} {
		_, err := service.RefreshMonth(ctx, ym[0], ym[1])
		require.NoError(t, err)
	}

	totals, err := service.GrandTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, totals.LoanCount)
	assert.True(t, totals.TotalPrincipal.Equal(decimal.NewFromInt(15000)))
	assert.True(t, totals.TotalInterest.Equal(decimal.NewFromInt(3000)))
}

func TestReportService_ExportMonthRows(t *testing.T) {
	ctx := context.Background()
	loanRepo, service := newFixture(t)
	seedLoan(t, loanRepo, "Som", "2025-01-15", 10000, loan.StatusEmpty)

	headers, rows, err := service.ExportMonthRows(ctx, 2025, 1)
	require.NoError(t, err)
	assert.Equal(t, "No.", headers[0])
	assert.Equal(t, "สถานะ", headers[len(headers)-1])
	require.Len(t, rows, 1)
	assert.Equal(t, "Som", rows[0][1])
	assert.Equal(t, "15/1/2568", rows[0][3])
	assert.Equal(t, "10000.00", rows[0][5])
	assert.Equal(t, "12000.00", rows[0][8])
}

func TestReportService_InvalidMonthRejected(t *testing.T) {
	_, service := newFixture(t)

	_, err := service.GetMonth(context.Background(), 2025, 13)
	assert.Error(t, err)
}
