package importer

import (
	"context"
	"strings"

	"loanshop/internal/spreadsheet"
)

// StagedRow is one spreadsheet row after normalization, flagged but not
// written. The preview screen shows these before the operator commits.
type StagedRow struct {
	Index     int    `json:"index"`
	Nickname  string `json:"nickname,omitempty"`
	Valid     bool   `json:"valid"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Error     string `json:"error,omitempty"`
}

type Preview struct {
	Total      int         `json:"total"`
	Importable int         `json:"importable"`
	Invalid    int         `json:"invalid"`
	Duplicates int         `json:"duplicates"`
	Rows       []StagedRow `json:"rows"`
}

// StageCustomerRows dry-runs a customer import: every row is normalized
// and flagged against the store and earlier rows, nothing is written.
func (p *Pipeline) StageCustomerRows(ctx context.Context, rows []spreadsheet.Row) (*Preview, error) {
	existing, err := p.customers.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		seen[strings.ToLower(c.Nickname)] = struct{}{}
	}

	preview := &Preview{Total: len(rows), Rows: make([]StagedRow, 0, len(rows))}
	for i, row := range rows {
		staged := StagedRow{Index: i}
		c, err := NormalizeCustomerRow(row)
		if err != nil {
			staged.Error = err.Error()
			preview.Invalid++
			preview.Rows = append(preview.Rows, staged)
			continue
		}
		staged.Nickname = c.Nickname
		key := strings.ToLower(c.Nickname)
		if _, dup := seen[key]; dup {
			staged.Duplicate = true
			preview.Duplicates++
		} else {
			staged.Valid = true
			preview.Importable++
			seen[key] = struct{}{}
		}
		preview.Rows = append(preview.Rows, staged)
	}
	return preview, nil
}

// StageLoanRows dry-runs a loan import. Loans are never duplicate
// checked, so rows are only flagged valid or invalid.
func (p *Pipeline) StageLoanRows(ctx context.Context, rows []spreadsheet.Row) (*Preview, error) {
	preview := &Preview{Total: len(rows), Rows: make([]StagedRow, 0, len(rows))}
	for i, row := range rows {
		staged := StagedRow{Index: i}
		l, err := NormalizeLoanRow(row)
		if err != nil {
			staged.Error = err.Error()
			preview.Invalid++
		} else {
			staged.Nickname = l.Nickname
			staged.Valid = true
			preview.Importable++
		}
		preview.Rows = append(preview.Rows, staged)
	}
	return preview, nil
}
