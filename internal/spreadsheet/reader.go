package spreadsheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"loanshop/internal/pkg/apperrors"

	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadFile dispatches on the file extension. CSV is read as UTF-8 text;
// xls/xlsx are read as binary workbooks, first sheet only.
func ReadFile(filename string, r io.Reader) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ReadCSV(r)
	case ".xls", ".xlsx":
		return ReadWorkbook(r)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", apperrors.ErrInvalidArgument, filepath.Ext(filename))
	}
}

// ReadCSV parses UTF-8 comma-separated text into header-keyed rows. A
// leading byte-order mark is stripped and CRLF line endings are accepted.
func ReadCSV(r io.Reader) ([]Row, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(utf8BOM))
	if err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: malformed csv: %v", apperrors.ErrInvalidArgument, err)
	}
	if len(records) < 1 {
		return nil, nil
	}

	headers := records[0]
	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := Row{}
		for i, header := range headers {
			header = strings.TrimSpace(header)
			if header == "" || i >= len(record) {
				continue
			}
			value := strings.TrimSpace(record[i])
			if value == "" {
				continue
			}
			row[header] = Cell{Kind: CellText, Text: value}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// ReadWorkbook parses the first sheet of an Excel workbook into
// header-keyed rows. Cells are read raw, so date cells surface as their
// numeric serials rather than locale-formatted strings.
func ReadWorkbook(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open workbook: %v", apperrors.ErrInvalidArgument, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read sheet %q: %v", apperrors.ErrInvalidArgument, sheets[0], err)
	}
	if len(records) < 1 {
		return nil, nil
	}

	headers := records[0]
	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := Row{}
		for i, header := range headers {
			header = strings.TrimSpace(header)
			if header == "" || i >= len(record) {
				continue
			}
			value := strings.TrimSpace(record[i])
			if value == "" {
				continue
			}
			row[header] = rawCell(value)
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// rawCell tags a raw workbook value. Raw numeric text is a number cell;
// date serials are decoded later by the normalizer, which knows whether a
// number sits in a date column.
func rawCell(value string) Cell {
	if n, err := strconv.ParseFloat(value, 64); err == nil {
		return Cell{Kind: CellNumber, Number: n, Text: value}
	}
	return Cell{Kind: CellText, Text: value}
}
