// Package thaidate normalizes the date values found in loan-shop
// spreadsheets: ISO strings, day-first Thai formats, Buddhist-era years and
// raw Excel date serials. The canonical form everywhere is "YYYY-MM-DD",
// which is also what the document store range-queries on.
package thaidate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Days between the spreadsheet epoch (1899-12-30) and 1970-01-01.
const serialEpochOffset = 25569

// Buddhist-era years are Gregorian + 543. Anything above this threshold is
// treated as B.E. input.
const buddhistYearMin = 2500

var ThaiMonths = [13]string{"",
	"มกราคม", "กุมภาพันธ์", "มีนาคม", "เมษายน", "พฤษภาคม", "มิถุนายน",
	"กรกฎาคม", "สิงหาคม", "กันยายน", "ตุลาคม", "พฤศจิกายน", "ธันวาคม",
}

// ParseString parses a spreadsheet date string into canonical YYYY-MM-DD.
// Supported inputs, in order: YYYY-M-D (also / and . separated), and
// day-first D/M/YYYY (also - and . separated) where a slot greater than 12
// fixes which one is the month. Years above 2500 are Buddhist era and are
// converted by subtracting 543; 2-digit years are promoted by adding 2000.
// Unparseable input yields "".
func ParseString(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	parts := splitDateParts(s)
	if len(parts) != 3 {
		return ""
	}

	a, errA := strconv.Atoi(parts[0])
	b, errB := strconv.Atoi(parts[1])
	c, errC := strconv.Atoi(parts[2])
	if errA != nil || errB != nil || errC != nil {
		return ""
	}

	var year, month, day int
	if len(parts[0]) == 4 {
		// Year-first: YYYY-M-D.
		year, month, day = a, b, c
	} else {
		// Day-first by default; a slot above 12 pins the month.
		day, month, year = a, b, c
		if month > 12 && day <= 12 {
			day, month = month, day
		}
	}

	year = normalizeYear(year)
	if !validDate(year, month, day) {
		return ""
	}
	return Format(year, month, day)
}

// FromSerial converts an Excel/OpenXML date serial into canonical form
// using the 25,569-day offset between the spreadsheet epoch and 1970-01-01.
func FromSerial(serial float64) string {
	days := int64(math.Floor(serial)) - serialEpochOffset
	if days <= 0 {
		return ""
	}
	t := time.Unix(days*86400, 0).UTC()
	return t.Format("2006-01-02")
}

// FromTime extracts the calendar fields of a native date value.
func FromTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return Format(t.Year(), int(t.Month()), t.Day())
}

// AddOneMonth advances a canonical date by one month, clamping the day to
// the last valid day of the target month. A loan taken on 28 or 29 February
// falls due on 30 March, not on the generic end-of-March clamp.
func AddOneMonth(date string) string {
	year, month, day, ok := Split(date)
	if !ok {
		return ""
	}

	if month == 2 && (day == 28 || day == 29) {
		return Format(year, 3, 30)
	}

	month++
	if month > 12 {
		month = 1
		year++
	}
	if last := lastDay(year, month); day > last {
		day = last
	}
	return Format(year, month, day)
}

// Split breaks a canonical date into its fields; ok is false when the input
// is not a valid YYYY-MM-DD date.
func Split(date string) (year, month, day int, ok bool) {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	y, errY := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	d, errD := strconv.Atoi(parts[2])
	if errY != nil || errM != nil || errD != nil || !validDate(y, m, d) {
		return 0, 0, 0, false
	}
	return y, m, d, true
}

// Format renders calendar fields in the canonical zero-padded form.
func Format(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// FormatThai renders a canonical date as D/M/B.E. for display and export.
func FormatThai(date string) string {
	year, month, day, ok := Split(date)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%d/%d/%d", day, month, year+543)
}

// MonthKey is the deterministic monthly-report document key.
func MonthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// MonthBounds returns the half-open [start, end) canonical-date range
// covering a calendar month, suitable for lexicographic range queries.
func MonthBounds(year, month int) (start, end string) {
	start = Format(year, month, 1)
	if month == 12 {
		end = Format(year+1, 1, 1)
	} else {
		end = Format(year, month+1, 1)
	}
	return start, end
}

// MonthName returns the Thai month name with the Buddhist-era year, as used
// in report headers and export filenames.
func MonthName(year, month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return fmt.Sprintf("%s %d", ThaiMonths[month], year+543)
}

func splitDateParts(s string) []string {
	for _, sep := range []string{"-", "/", "."} {
		if strings.Contains(s, sep) {
			return strings.Split(s, sep)
		}
	}
	return nil
}

func normalizeYear(year int) int {
	if year < 100 {
		year += 2000
	}
	if year > buddhistYearMin {
		year -= 543
	}
	return year
}

func validDate(year, month, day int) bool {
	if year < 1900 || year > 2400 {
		return false
	}
	if month < 1 || month > 12 {
		return false
	}
	return day >= 1 && day <= lastDay(year, month)
}

func lastDay(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
