package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"loanshop/internal/pkg/thaidate"
)

// WriteCSV writes a UTF-8 CSV with a leading byte-order mark, one header
// row, comma delimiters and doubled-quote escaping, matching what the
// shop's spreadsheets expect.
func WriteCSV(w io.Writer, headers []string, rows [][]string) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CustomerExportFilename embeds the current date.
func CustomerExportFilename(now time.Time) string {
	return fmt.Sprintf("customers_%s.csv", now.Format("2006-01-02"))
}

// AllLoansExportFilename embeds the current date.
func AllLoansExportFilename(now time.Time) string {
	return fmt.Sprintf("all_loans_%s.csv", now.Format("2006-01-02"))
}

// MonthExportFilename embeds the reporting month with its Buddhist-era
// year, e.g. "loan_ธันวาคม_2567.csv".
func MonthExportFilename(year, month int) string {
	if month < 1 || month > 12 {
		return fmt.Sprintf("loan_%s.csv", thaidate.MonthKey(year, month))
	}
	return fmt.Sprintf("loan_%s_%d.csv", thaidate.ThaiMonths[month], year+543)
}
