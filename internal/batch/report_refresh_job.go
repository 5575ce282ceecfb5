package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"loanshop/internal/domain/report"
)

// ReportRefreshJob re-aggregates the current month's report snapshot so
// the dashboard reads a fresh roll-up even when no one touched a loan
// through the API that day. It also refreshes the previous month shortly
// after a month boundary, when late spreadsheet imports still land there.
type ReportRefreshJob struct {
	reportService report.ReportService
	logger        *slog.Logger
}

func NewReportRefreshJob(reportSvc report.ReportService, logger *slog.Logger) *ReportRefreshJob {
	if reportSvc == nil || logger == nil {
		panic("ReportRefreshJob dependencies cannot be nil")
	}
	return &ReportRefreshJob{
		reportService: reportSvc,
		logger:        logger.With("job", "ReportRefresh"),
	}
}

func (j *ReportRefreshJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting monthly report refresh job.")

	now := time.Now()
	months := [][2]int{{now.Year(), int(now.Month())}}
	if now.Day() <= 7 {
		prev := now.AddDate(0, -1, -now.Day()+1)
		months = append(months, [2]int{prev.Year(), int(prev.Month())})
	}

	var errCount int
	for _, ym := range months {
		r, err := j.reportService.RefreshMonth(ctx, ym[0], ym[1])
		if err != nil {
			j.logger.ErrorContext(ctx, "Failed to refresh monthly report",
				slog.Int("year", ym[0]), slog.Int("month", ym[1]), slog.Any("error", err))
			errCount++
			continue
		}
		j.logger.InfoContext(ctx, "Monthly report refreshed.",
			slog.Int("year", ym[0]), slog.Int("month", ym[1]),
			slog.Int("loanCount", r.LoanCount))
	}

	duration := time.Since(startTime)
	if errCount > 0 {
		j.logger.WarnContext(ctx, "Report refresh job finished with errors.",
			slog.Duration("duration", duration), slog.Int("errors", errCount))
		return fmt.Errorf("job completed with %d errors", errCount)
	}
	j.logger.InfoContext(ctx, "Report refresh job finished successfully.", slog.Duration("duration", duration))
	return nil
}
