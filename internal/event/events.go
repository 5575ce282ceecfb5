package event

import (
	"context"
	"log/slog"
	"time"
)

// ImportRowEvent is emitted once per processed row, in input order. It is
// an observability side channel; import correctness never depends on it.
type ImportRowEvent struct {
	Kind      string    `json:"kind"`
	Index     int       `json:"index"`
	Nickname  string    `json:"nickname"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ImportCompletedEvent struct {
	Kind      string    `json:"kind"`
	Success   int       `json:"success"`
	Failed    int       `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
}

// LoanRolledOverEvent reports the best-effort successor-loan side effect
// of an interest-only transition.
type LoanRolledOverEvent struct {
	LoanID      string    `json:"loanId"`
	SuccessorID string    `json:"successorId"`
	Nickname    string    `json:"nickname"`
	TargetMonth string    `json:"targetMonth"`
	Timestamp   time.Time `json:"timestamp"`
}

type Publisher interface {
	PublishImportRow(ctx context.Context, evt ImportRowEvent) error
	PublishImportCompleted(ctx context.Context, evt ImportCompletedEvent) error
	PublishLoanRolledOver(ctx context.Context, evt LoanRolledOverEvent) error
}

// LogPublisher writes events to the structured log. It is the default
// publisher when no message broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

var _ Publisher = (*LogPublisher)(nil)

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With("component", "LogPublisher")}
}

func (p *LogPublisher) PublishImportRow(ctx context.Context, evt ImportRowEvent) error {
	p.logger.InfoContext(ctx, "Import row processed",
		"kind", evt.Kind, "index", evt.Index, "nickname", evt.Nickname,
		"success", evt.Success, "error", evt.Error)
	return nil
}

func (p *LogPublisher) PublishImportCompleted(ctx context.Context, evt ImportCompletedEvent) error {
	p.logger.InfoContext(ctx, "Import completed",
		"kind", evt.Kind, "success", evt.Success, "failed", evt.Failed)
	return nil
}

func (p *LogPublisher) PublishLoanRolledOver(ctx context.Context, evt LoanRolledOverEvent) error {
	p.logger.InfoContext(ctx, "Loan rolled over",
		"loanID", evt.LoanID, "successorID", evt.SuccessorID,
		"nickname", evt.Nickname, "targetMonth", evt.TargetMonth)
	return nil
}
