package customer

import (
	"strings"
	"time"

	"loanshop/internal/infrastructure/docstore"
)

// Collection is the document collection holding customer records.
const Collection = "customers"

// Customer is an identity-light record keyed in practice by nickname,
// the shop's de facto unique business key.
type Customer struct {
	ID          string
	Nickname    string
	NameSurname string
	IDCard      string
	Telephone   string
	Birthday    string
	Address     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MaskedIDCard hides all but the last four digits of the 13-digit
// national ID for display and export surfaces.
func (c *Customer) MaskedIDCard() string {
	if len(c.IDCard) != 13 {
		return c.IDCard
	}
	return strings.Repeat("x", 9) + c.IDCard[9:]
}

func (c *Customer) ToDoc() map[string]any {
	return map[string]any{
		"nickname":    c.Nickname,
		"nameSurname": c.NameSurname,
		"idCard":      c.IDCard,
		"telephone":   c.Telephone,
		"birthday":    c.Birthday,
		"address":     c.Address,
		"createdAt":   c.CreatedAt.UTC().Format(time.RFC3339),
		"updatedAt":   c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func FromDoc(doc docstore.Document) *Customer {
	return &Customer{
		ID:          doc.ID,
		Nickname:    doc.GetString("nickname"),
		NameSurname: doc.GetString("nameSurname"),
		IDCard:      doc.GetString("idCard"),
		Telephone:   doc.GetString("telephone"),
		Birthday:    doc.GetString("birthday"),
		Address:     doc.GetString("address"),
		CreatedAt:   doc.GetTime("createdAt"),
		UpdatedAt:   doc.GetTime("updatedAt"),
	}
}
