package importer

import (
	"strconv"
	"strings"

	"loanshop/internal/domain/customer"
	"loanshop/internal/domain/loan"
	"loanshop/internal/pkg/apperrors"
	"loanshop/internal/pkg/thaidate"
	"loanshop/internal/spreadsheet"

	"github.com/shopspring/decimal"
)

// NormalizeCustomerRow coerces one raw spreadsheet row into a customer
// record. Only the nickname is mandatory; everything else is cleaned on
// a best-effort basis.
func NormalizeCustomerRow(row spreadsheet.Row) (*customer.Customer, error) {
	c := &customer.Customer{
		Nickname:    strings.TrimSpace(pickCell(row, customerAliases, "nickname").String()),
		NameSurname: strings.TrimSpace(pickCell(row, customerAliases, "nameSurname").String()),
		IDCard:      normalizeIDCard(pickCell(row, customerAliases, "idCard").String()),
		Telephone:   normalizePhone(pickCell(row, customerAliases, "telephone").String()),
		Birthday:    parseDateCell(pickCell(row, customerAliases, "birthday")),
		Address:     strings.TrimSpace(pickCell(row, customerAliases, "address").String()),
	}
	if c.Nickname == "" {
		return nil, apperrors.NewValidationError("nickname", "nickname is required")
	}
	return c, nil
}

// NormalizeLoanRow coerces one raw spreadsheet row into a loan record.
// A usable row needs a nickname, a parsable loan date, and a positive
// principal; the interest amount is derived from the rate when absent.
func NormalizeLoanRow(row spreadsheet.Row) (*loan.Loan, error) {
	l := &loan.Loan{
		Nickname:     strings.TrimSpace(pickCell(row, loanAliases, "nickname").String()),
		NameSurname:  strings.TrimSpace(pickCell(row, loanAliases, "nameSurname").String()),
		LoanDate:     parseDateCell(pickCell(row, loanAliases, "loanDate")),
		ReturnDate:   parseDateCell(pickCell(row, loanAliases, "returnDate")),
		Principal:    parseAmount(pickCell(row, loanAliases, "principal")),
		InterestRate: parseAmount(pickCell(row, loanAliases, "interestRate")),
		Interest:     parseAmount(pickCell(row, loanAliases, "interest")),
		InterestType: strings.TrimSpace(pickCell(row, loanAliases, "interestType").String()),
		Status:       loan.FoldStatus(pickCell(row, loanAliases, "status").String()),
		Summary:      strings.TrimSpace(pickCell(row, loanAliases, "summary").String()),
	}
	if l.Nickname == "" {
		return nil, apperrors.NewValidationError("nickname", "nickname is required")
	}
	if l.LoanDate == "" {
		return nil, apperrors.NewValidationError("loanDate", "loan date is missing or unparsable")
	}
	if !l.Principal.IsPositive() {
		return nil, apperrors.NewValidationError("principal", "principal must be positive")
	}
	if l.ReturnDate == "" {
		l.ReturnDate = thaidate.AddOneMonth(l.LoanDate)
	}
	l.DeriveInterest()
	return l, nil
}

// parseDateCell accepts real workbook dates, Excel serial numbers, and
// the assorted text formats the shop's spreadsheets use.
func parseDateCell(cell spreadsheet.Cell) string {
	switch cell.Kind {
	case spreadsheet.CellTime:
		return thaidate.FromTime(cell.Time)
	case spreadsheet.CellNumber:
		return thaidate.FromSerial(cell.Number)
	case spreadsheet.CellText:
		text := strings.TrimSpace(cell.Text)
		if d := thaidate.ParseString(text); d != "" {
			return d
		}
		// A bare number in a text column is still a date serial.
		if serial, err := strconv.ParseFloat(text, 64); err == nil {
			return thaidate.FromSerial(serial)
		}
	}
	return ""
}

// parseAmount strips thousands separators and currency noise before
// parsing. Unparsable input is zero, not an error.
func parseAmount(cell spreadsheet.Cell) decimal.Decimal {
	if cell.Kind == spreadsheet.CellNumber {
		return decimal.NewFromFloat(cell.Number)
	}
	s := strings.TrimSpace(cell.String())
	s = strings.NewReplacer(",", "", " ", "", "฿", "", "%", "").Replace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// normalizePhone keeps digits only and restores the leading zero that
// spreadsheet numeric columns strip from Thai phone numbers.
func normalizePhone(raw string) string {
	digits := keepDigits(raw)
	if len(digits) == 9 {
		return "0" + digits
	}
	return digits
}

// normalizeIDCard keeps digits only and restores leading zeros dropped
// by numeric columns; anything longer than a Thai ID is discarded.
func normalizeIDCard(raw string) string {
	digits := keepDigits(raw)
	if digits == "" || len(digits) > 13 {
		return ""
	}
	return strings.Repeat("0", 13-len(digits)) + digits
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
