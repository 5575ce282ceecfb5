package importer

import (
	"strings"

	"loanshop/internal/spreadsheet"
)

// Column aliases: shop spreadsheets arrived over the years with Thai
// headers, English headers, and several spellings of each. Lookup is
// case-insensitive on the trimmed header text.

var customerAliases = map[string][]string{
	"nickname":    {"nickname", "nick name", "ชื่อเล่น"},
	"nameSurname": {"name-surname", "name - surname", "name surname", "namesurname", "ชื่อ-สกุล", "ชื่อ-นามสกุล", "ชื่อ นามสกุล"},
	"idCard":      {"id card", "idcard", "id", "เลขบัตรประชาชน", "บัตรประชาชน", "เลขบัตร"},
	"telephone":   {"telephone", "tel", "phone", "เบอร์โทร", "เบอร์โทรศัพท์", "โทรศัพท์"},
	"birthday":    {"birthday", "birth date", "dob", "วันเกิด", "วัน/เดือน/ปีเกิด"},
	"address":     {"address", "ที่อยู่"},
}

var loanAliases = map[string][]string{
	"nickname":     {"nickname", "nick name", "ชื่อเล่น"},
	"nameSurname":  {"name-surname", "name - surname", "name surname", "namesurname", "ชื่อ-สกุล", "ชื่อ-นามสกุล"},
	"loanDate":     {"loan date", "loandate", "date", "วันที่กู้", "วันที่ยืม", "วันกู้"},
	"returnDate":   {"return date", "returndate", "due date", "วันที่คืน", "วันครบกำหนด", "วันคืน"},
	"principal":    {"principal", "amount", "เงินต้น", "ยอดเงิน", "จำนวนเงิน"},
	"interestRate": {"interest rate", "rate", "อัตราดอกเบี้ย", "ดอกเบี้ย(%)", "ดอกเบี้ย (%)"},
	"interest":     {"interest", "ดอกเบี้ย", "ค่าดอก", "ดอก"},
	"interestType": {"interest type", "type", "ประเภทดอกเบี้ย", "ประเภท"},
	"status":       {"status", "สถานะ"},
	"summary":      {"summary", "note", "remark", "หมายเหตุ", "สรุป"},
}

// pickCell resolves a logical field against a row using the alias table.
// Aliases are tried in list order so a row carrying two candidate
// headers always resolves to the same column.
func pickCell(row spreadsheet.Row, aliases map[string][]string, field string) spreadsheet.Cell {
	names, ok := aliases[field]
	if !ok {
		return spreadsheet.Cell{}
	}
	for _, name := range names {
		for header, cell := range row {
			if strings.ToLower(strings.TrimSpace(header)) == name && !cell.IsEmpty() {
				return cell
			}
		}
	}
	return spreadsheet.Cell{}
}
