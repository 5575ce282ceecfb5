package loan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"loanshop/internal/event"
	"loanshop/internal/infrastructure/monitoring"
	"loanshop/internal/pkg/apperrors"
	"loanshop/internal/pkg/thaidate"

	"github.com/shopspring/decimal"
)

type LoanService interface {
	CreateLoan(ctx context.Context, l *Loan) (*Loan, error)
	GetLoan(ctx context.Context, id string) (*Loan, error)
	UpdateLoan(ctx context.Context, l *Loan) (*Loan, error)
	DeleteLoan(ctx context.Context, id string) error
	ListLoans(ctx context.Context) ([]*Loan, error)
	ListByMonth(ctx context.Context, year, month int) ([]*Loan, error)
	// SetStatus moves a loan to the given state. A transition into
	// interest-only additionally creates next month's successor loan.
	SetStatus(ctx context.Context, id string, status Status) (*Loan, error)
	// SetPayAmount records a manual override of the amount due.
	SetPayAmount(ctx context.Context, id string, amount decimal.Decimal) (*Loan, error)
	BulkSetStatus(ctx context.Context, ids []string, status Status) error
	BulkDelete(ctx context.Context, ids []string) error
	ExportRows(ctx context.Context) ([]string, [][]string, error)
}

var exportHeaders = []string{"No.", "Nickname", "Name-Surname", "วันที่กู้", "วันที่คืน", "เงินต้น", "ประเภทดอกเบี้ย", "ดอกเบี้ย", "ต้น+ดอก", "สถานะ"}

type loanServiceImpl struct {
	repo      Repository
	publisher event.Publisher
	logger    *slog.Logger
}

func NewLoanService(repo Repository, publisher event.Publisher, logger *slog.Logger) LoanService {
	return &loanServiceImpl{
		repo:      repo,
		publisher: publisher,
		logger:    logger.With(slog.String("component", "LoanService")),
	}
}

func (s *loanServiceImpl) CreateLoan(ctx context.Context, l *Loan) (*Loan, error) {
	if err := s.validate(l); err != nil {
		return nil, err
	}
	if l.ReturnDate == "" {
		l.ReturnDate = thaidate.AddOneMonth(l.LoanDate)
	}
	l.DeriveInterest()
	if !l.Status.Valid() {
		l.Status = FoldStatus(string(l.Status))
	}
	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Loan created",
		slog.String("loanID", l.ID), slog.String("nickname", l.Nickname),
		slog.String("loanDate", l.LoanDate))

	if l.Status == StatusInterestOnly {
		s.rollover(ctx, l)
	}
	return l, nil
}

func (s *loanServiceImpl) GetLoan(ctx context.Context, id string) (*Loan, error) {
	return s.repo.Get(ctx, id)
}

func (s *loanServiceImpl) UpdateLoan(ctx context.Context, l *Loan) (*Loan, error) {
	if l.ID == "" {
		return nil, apperrors.NewValidationError("id", "loan id is required")
	}
	if err := s.validate(l); err != nil {
		return nil, err
	}
	current, err := s.repo.Get(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	if l.ReturnDate == "" {
		l.ReturnDate = thaidate.AddOneMonth(l.LoanDate)
	}
	l.DeriveInterest()
	l.CreatedAt = current.CreatedAt
	l.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	if l.Status == StatusInterestOnly && current.Status != StatusInterestOnly {
		s.rollover(ctx, l)
	}
	return l, nil
}

func (s *loanServiceImpl) DeleteLoan(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Loan deleted", slog.String("loanID", id))
	return nil
}

func (s *loanServiceImpl) ListLoans(ctx context.Context) ([]*Loan, error) {
	return s.repo.List(ctx)
}

func (s *loanServiceImpl) ListByMonth(ctx context.Context, year, month int) ([]*Loan, error) {
	return s.repo.ListByMonth(ctx, year, month)
}

func (s *loanServiceImpl) SetStatus(ctx context.Context, id string, status Status) (*Loan, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := l.Status
	l.Status = status
	l.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Loan status changed",
		slog.String("loanID", id), slog.String("from", string(prev)), slog.String("to", string(status)))

	if status == StatusInterestOnly && prev != StatusInterestOnly {
		s.rollover(ctx, l)
	}
	return l, nil
}

func (s *loanServiceImpl) SetPayAmount(ctx context.Context, id string, amount decimal.Decimal) (*Loan, error) {
	if amount.IsNegative() {
		return nil, apperrors.NewValidationError("payAmount", "pay amount must not be negative")
	}
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	l.PayAmount = amount
	l.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *loanServiceImpl) BulkSetStatus(ctx context.Context, ids []string, status Status) error {
	if !status.Valid() {
		return apperrors.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}
	if len(ids) == 0 {
		return nil
	}
	// Load first so interest-only transitions are known before the
	// atomic write flips them.
	entering := make([]*Loan, 0)
	for _, id := range ids {
		l, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if status == StatusInterestOnly && l.Status != StatusInterestOnly {
			entering = append(entering, l)
		}
	}
	if err := s.repo.BulkUpdateStatus(ctx, ids, status, time.Now()); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Bulk status update applied",
		slog.Int("count", len(ids)), slog.String("status", string(status)))

	for _, l := range entering {
		l.Status = status
		s.rollover(ctx, l)
	}
	return nil
}

func (s *loanServiceImpl) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.repo.BulkDelete(ctx, ids); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Bulk delete applied", slog.Int("count", len(ids)))
	return nil
}

func (s *loanServiceImpl) ExportRows(ctx context.Context) ([]string, [][]string, error) {
	loans, err := s.repo.List(ctx)
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
	return exportHeaders, rows, nil
}

// rollover creates the follow-on loan that an interest-only payment
// implies: the debt continues into the next month with the same terms.
// It is best-effort; failures are logged and never fail the triggering
// status change.
func (s *loanServiceImpl) rollover(ctx context.Context, l *Loan) {
	start := l.ReturnDate
	if start == "" {
		start = thaidate.AddOneMonth(l.LoanDate)
	}
	year, month, _, ok := thaidate.Split(start)
	if !ok {
		s.logger.WarnContext(ctx, "Rollover skipped, no usable return date",
			slog.String("loanID", l.ID), slog.String("returnDate", l.ReturnDate))
		monitoring.RecordRollover("skipped")
		return
	}

	existing, err := s.repo.ListByMonth(ctx, year, month)
	if err != nil {
		s.logger.ErrorContext(ctx, "Rollover aborted, month lookup failed",
			slog.String("loanID", l.ID), slog.Any("error", err))
		monitoring.RecordRollover("failed")
		return
	}
	for _, other := range existing {
		if strings.EqualFold(other.Nickname, l.Nickname) {
			s.logger.DebugContext(ctx, "Rollover skipped, successor already exists",
				slog.String("loanID", l.ID), slog.String("month", thaidate.MonthKey(year, month)))
			monitoring.RecordRollover("skipped")
			return
		}
	}

	successor := &Loan{
		CustomerID:   l.CustomerID,
		Nickname:     l.Nickname,
		NameSurname:  l.NameSurname,
		LoanDate:     start,
		ReturnDate:   thaidate.AddOneMonth(start),
		Principal:    l.Principal,
		InterestRate: l.InterestRate,
		Interest:     l.Interest,
		InterestType: l.InterestType,
		Status:       StatusEmpty,
		Summary:      fmt.Sprintf("ต่อดอกจากยอดวันที่ %s", thaidate.FormatThai(l.LoanDate)),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := s.repo.Create(ctx, successor); err != nil {
		s.logger.ErrorContext(ctx, "Rollover failed, successor not created",
			slog.String("loanID", l.ID), slog.Any("error", err))
		monitoring.RecordRollover("failed")
		return
	}

	s.logger.InfoContext(ctx, "Loan rolled over",
		slog.String("loanID", l.ID), slog.String("successorID", successor.ID),
		slog.String("targetMonth", thaidate.MonthKey(year, month)))
	monitoring.RecordRollover("created")

	if err := s.publisher.PublishLoanRolledOver(ctx, event.LoanRolledOverEvent{
		LoanID:      l.ID,
		SuccessorID: successor.ID,
		Nickname:    l.Nickname,
		TargetMonth: thaidate.MonthKey(year, month),
		Timestamp:   time.Now(),
	}); err != nil {
		s.logger.WarnContext(ctx, "Rollover event publish failed", slog.Any("error", err))
	}
}

func (s *loanServiceImpl) validate(l *Loan) error {
	l.Nickname = strings.TrimSpace(l.Nickname)
	l.NameSurname = strings.TrimSpace(l.NameSurname)
	if l.Nickname == "" {
		return apperrors.NewValidationError("nickname", "nickname is required")
	}
	l.LoanDate = thaidate.ParseString(l.LoanDate)
	if l.LoanDate == "" {
		return apperrors.NewValidationError("loanDate", "loan date is required")
	}
	if l.ReturnDate != "" {
		l.ReturnDate = thaidate.ParseString(l.ReturnDate)
		if l.ReturnDate == "" {
			return apperrors.NewValidationError("returnDate", "return date is not a valid date")
		}
	}
	if l.Principal.IsNegative() {
		return apperrors.NewValidationError("principal", "principal must not be negative")
	}
	return nil
}
