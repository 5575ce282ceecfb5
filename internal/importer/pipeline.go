package importer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"loanshop/internal/domain/customer"
	"loanshop/internal/domain/loan"
	"loanshop/internal/event"
	"loanshop/internal/infrastructure/monitoring"
	"loanshop/internal/spreadsheet"
)

// RowError records why a single row was rejected; the import carries on.
type RowError struct {
	Index    int    `json:"index"`
	Nickname string `json:"nickname,omitempty"`
	Message  string `json:"message"`
}

type Result struct {
	Success int        `json:"success"`
	Failed  int        `json:"failed"`
	Errors  []RowError `json:"errors,omitempty"`
}

// Pipeline runs spreadsheet imports. Rows are processed strictly in
// input order, one at a time; a bad row is counted and logged, never
// fatal. Lifecycle side effects (rollovers) are deliberately not
// triggered here: imports reproduce historical records as-is.
type Pipeline struct {
	customers customer.Repository
	loans     loan.Repository
	publisher event.Publisher
	logger    *slog.Logger
}

func NewPipeline(customers customer.Repository, loans loan.Repository, publisher event.Publisher, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		customers: customers,
		loans:     loans,
		publisher: publisher,
		logger:    logger.With(slog.String("component", "ImportPipeline")),
	}
}

// RunCustomerImport inserts customer rows, skipping any nickname already
// present in the store or earlier in the same file.
func (p *Pipeline) RunCustomerImport(ctx context.Context, rows []spreadsheet.Row) (*Result, error) {
	existing, err := p.customers.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		seen[strings.ToLower(c.Nickname)] = struct{}{}
	}

	result := &Result{}
	for i, row := range rows {
		c, err := NormalizeCustomerRow(row)
		if err != nil {
			p.reject(ctx, result, "customer", i, "", err.Error())
			continue
		}
		key := strings.ToLower(c.Nickname)
		if _, dup := seen[key]; dup {
			p.reject(ctx, result, "customer", i, c.Nickname, "duplicate nickname")
			continue
		}
		now := time.Now()
		c.CreatedAt = now
		c.UpdatedAt = now
		if err := p.customers.Create(ctx, c); err != nil {
			p.reject(ctx, result, "customer", i, c.Nickname, err.Error())
			continue
		}
		seen[key] = struct{}{}
		p.accept(ctx, result, "customer", i, c.Nickname)
	}
	p.complete(ctx, "customer", result)
	return result, nil
}

// RunLoanImport inserts loan rows, linking each to an existing customer
// by nickname when one matches. Loans are historical facts and are not
// de-duplicated: the same customer legitimately borrows every month.
func (p *Pipeline) RunLoanImport(ctx context.Context, rows []spreadsheet.Row) (*Result, error) {
	existing, err := p.customers.List(ctx)
	if err != nil {
		return nil, err
	}
	customerIDs := make(map[string]string, len(existing))
	for _, c := range existing {
		customerIDs[strings.ToLower(c.Nickname)] = c.ID
	}

	result := &Result{}
	for i, row := range rows {
		l, err := NormalizeLoanRow(row)
		if err != nil {
			p.reject(ctx, result, "loan", i, "", err.Error())
			continue
		}
		l.CustomerID = customerIDs[strings.ToLower(l.Nickname)]
		now := time.Now()
		l.CreatedAt = now
		l.UpdatedAt = now
		if err := p.loans.Create(ctx, l); err != nil {
			p.reject(ctx, result, "loan", i, l.Nickname, err.Error())
			continue
		}
		p.accept(ctx, result, "loan", i, l.Nickname)
	}
	p.complete(ctx, "loan", result)
	return result, nil
}

func (p *Pipeline) accept(ctx context.Context, result *Result, kind string, index int, nickname string) {
	result.Success++
	monitoring.RecordImportRow(kind, "success")
	p.publish(ctx, event.ImportRowEvent{
		Kind: kind, Index: index, Nickname: nickname, Success: true, Timestamp: time.Now(),
	})
}

func (p *Pipeline) reject(ctx context.Context, result *Result, kind string, index int, nickname, message string) {
	result.Failed++
	result.Errors = append(result.Errors, RowError{Index: index, Nickname: nickname, Message: message})
	monitoring.RecordImportRow(kind, "failed")
	p.logger.WarnContext(ctx, "Import row rejected",
		slog.String("kind", kind), slog.Int("index", index),
		slog.String("nickname", nickname), slog.String("reason", message))
	p.publish(ctx, event.ImportRowEvent{
		Kind: kind, Index: index, Nickname: nickname, Success: false, Error: message, Timestamp: time.Now(),
	})
}

func (p *Pipeline) complete(ctx context.Context, kind string, result *Result) {
	p.logger.InfoContext(ctx, "Import finished",
		slog.String("kind", kind), slog.Int("success", result.Success), slog.Int("failed", result.Failed))
	if err := p.publisher.PublishImportCompleted(ctx, event.ImportCompletedEvent{
		Kind: kind, Success: result.Success, Failed: result.Failed, Timestamp: time.Now(),
	}); err != nil {
		p.logger.WarnContext(ctx, "Import completed event publish failed", slog.Any("error", err))
	}
}

func (p *Pipeline) publish(ctx context.Context, evt event.ImportRowEvent) {
	if err := p.publisher.PublishImportRow(ctx, evt); err != nil {
		p.logger.WarnContext(ctx, "Import row event publish failed", slog.Any("error", err))
	}
}
