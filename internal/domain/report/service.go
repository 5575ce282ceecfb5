package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"loanshop/internal/domain/loan"
	"loanshop/internal/infrastructure/monitoring"
	"loanshop/internal/pkg/apperrors"
	"loanshop/internal/pkg/thaidate"
)

type ReportService interface {
	// RefreshMonth re-aggregates a month from the loan book and stores
	// the snapshot.
	RefreshMonth(ctx context.Context, year, month int) (*MonthlyReport, error)
	// GetMonth returns the stored snapshot, aggregating on the fly when
	// no snapshot exists yet.
	GetMonth(ctx context.Context, year, month int) (*MonthlyReport, error)
	// History returns the trailing window of months ending at the given
	// month, oldest first, always aggregated live.
	History(ctx context.Context, year, month, months int) ([]*MonthlyReport, error)
	ListReports(ctx context.Context) ([]*MonthlyReport, error)
	// GrandTotals sums every stored report.
	GrandTotals(ctx context.Context) (*MonthlyReport, error)
	// MonthDetail returns the month's loans together with its totals.
	MonthDetail(ctx context.Context, year, month int) (*MonthlyReport, []*loan.Loan, error)
	// ExportMonthRows renders a month's loans as spreadsheet rows.
	ExportMonthRows(ctx context.Context, year, month int) ([]string, [][]string, error)
}

var monthExportHeaders = []string{"No.", "Nickname", "Name-Surname", "วันที่กู้", "วันที่คืน", "เงินต้น", "ประเภทดอกเบี้ย", "ดอกเบี้ย", "ต้น+ดอก", "สถานะ"}

type reportServiceImpl struct {
	repo   Repository
	loans  loan.Repository
	logger *slog.Logger
}

func NewReportService(repo Repository, loans loan.Repository, logger *slog.Logger) ReportService {
	return &reportServiceImpl{
		repo:   repo,
		loans:  loans,
		logger: logger.With(slog.String("component", "ReportService")),
	}
}

func (s *reportServiceImpl) RefreshMonth(ctx context.Context, year, month int) (*MonthlyReport, error) {
	if err := validMonth(year, month); err != nil {
		return nil, err
	}
	loans, err := s.loans.ListByMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}
	r := Aggregate(year, month, loans)
	r.UpdatedAt = time.Now()
	if err := s.repo.Upsert(ctx, r); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Monthly report refreshed",
		slog.String("month", thaidate.MonthKey(year, month)),
		slog.Int("loanCount", r.LoanCount))
	monitoring.RecordReportRefresh()
	return r, nil
}

func (s *reportServiceImpl) GetMonth(ctx context.Context, year, month int) (*MonthlyReport, error) {
	if err := validMonth(year, month); err != nil {
		return nil, err
	}
	r, err := s.repo.Get(ctx, year, month)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	loans, err := s.loans.ListByMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}
	return Aggregate(year, month, loans), nil
}

func (s *reportServiceImpl) History(ctx context.Context, year, month, months int) ([]*MonthlyReport, error) {
	if err := validMonth(year, month); err != nil {
		return nil, err
	}
	if months < 1 {
		months = 1
	}
	// Walk back to the window's first month.
	y, m := year, month
	for i := 1; i < months; i++ {
		m--
		if m == 0 {
			m = 12
			y--
		}
	}
	history := make([]*MonthlyReport, 0, months)
	for i := 0; i < months; i++ {
		loans, err := s.loans.ListByMonth(ctx, y, m)
		if err != nil {
			return nil, err
		}
		history = append(history, Aggregate(y, m, loans))
		m++
		if m == 13 {
			m = 1
			y++
		}
	}
	return history, nil
}

func (s *reportServiceImpl) ListReports(ctx context.Context) ([]*MonthlyReport, error) {
	return s.repo.List(ctx)
}

func (s *reportServiceImpl) GrandTotals(ctx context.Context) (*MonthlyReport, error) {
	reports, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	total := &MonthlyReport{StatusCounts: make(map[loan.Status]int)}
	for _, r := range reports {
		total.LoanCount += r.LoanCount
		total.ActiveCount += r.ActiveCount
		total.TotalPrincipal = total.TotalPrincipal.Add(r.TotalPrincipal)
		total.TotalInterest = total.TotalInterest.Add(r.TotalInterest)
		total.TotalPaid = total.TotalPaid.Add(r.TotalPaid)
		for status, n := range r.StatusCounts {
			total.StatusCounts[status] += n
		}
	}
	return total, nil
}

func (s *reportServiceImpl) MonthDetail(ctx context.Context, year, month int) (*MonthlyReport, []*loan.Loan, error) {
	if err := validMonth(year, month); err != nil {
		return nil, nil, err
	}
	loans, err := s.loans.ListByMonth(ctx, year, month)
	if err != nil {
		return nil, nil, err
	}
	return Aggregate(year, month, loans), loans, nil
}

func (s *reportServiceImpl) ExportMonthRows(ctx context.Context, year, month int) ([]string, [][]string, error) {
	_, loans, err := s.MonthDetail(ctx, year, month)
	if err != nil {
		return nil, nil, err
	}
	rows := make([][]string, 0, len(loans))
	for i, l := range loans {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			l.Nickname,
			l.NameSurname,
			thaidate.FormatThai(l.LoanDate),
			thaidate.FormatThai(l.ReturnDate),
			l.Principal.StringFixed(2),
			l.InterestType,
			l.Interest.StringFixed(2),
			l.Total().StringFixed(2),
			string(l.Status),
		})
	}
	return monthExportHeaders, rows, nil
}

func validMonth(year, month int) error {
	if year < 1900 || year > 2400 {
		return apperrors.NewValidationError("year", fmt.Sprintf("year %d out of range", year))
	}
	if month < 1 || month > 12 {
		return apperrors.NewValidationError("month", fmt.Sprintf("month %d out of range", month))
	}
	return nil
}
