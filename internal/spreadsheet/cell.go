package spreadsheet

import (
	"math"
	"strconv"
	"time"
)

type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellTime
)

// Cell is a raw spreadsheet value. Workbook cells keep their uncoerced
// form so that numeric date serials reach the normalizer as numbers
// instead of pre-rendered strings.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Time   time.Time
}

// Row maps header text to the cell beneath it.
type Row map[string]Cell

func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// String renders the cell the way a text field consumes it.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return trimFloat(c.Number)
	case CellTime:
		return c.Time.Format("2006-01-02")
	default:
		return ""
	}
}

func trimFloat(f float64) string {
	if f == math.Trunc(f) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
