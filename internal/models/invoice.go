package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the external invoice date format (DD/MM/YYYY).
const DateLayout = "02/01/2006"

// Invoice is an issued sales invoice. It is never updated after being
// persisted; deleting it removes its items.
type Invoice struct {
	ID        uint      `gorm:"primaryKey;column:invoice_id" json:"invoice_id"`
	CreatedAt time.Time `json:"created_at"`

	// InvoiceNumber is MMYY_XXX; Sequence holds the XXX part so the highest
	// number of a month is found numerically.
	InvoiceNumber string `gorm:"size:16;uniqueIndex;not null" json:"invoice_number"`
	Sequence      int    `gorm:"not null" json:"-"`

	// Client
	ClientName string `gorm:"size:255;not null" json:"client_name"`
	VATNumber  string `gorm:"size:50;not null" json:"vat_number"`
	Address    string `gorm:"size:500" json:"address"`

	InvoiceDate time.Time `gorm:"type:date;index;not null" json:"invoice_date"`

	// Totals
	SubtotalHT       decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"subtotal_ht"`
	TaxAmount        decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"tax_amount"`
	StampFee         decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"stamp_fee"`
	FinalAmount      decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"final_amount"`
	FinalAmountWords string          `gorm:"size:500" json:"final_amount_words"`

	Items []Item `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// Item is a line of an invoice.
type Item struct {
	ID        uint `gorm:"primaryKey;column:item_id" json:"item_id"`
	InvoiceID uint `gorm:"index;not null" json:"invoice_id"`

	Reference   string          `gorm:"size:100" json:"reference"`
	Designation string          `gorm:"size:500" json:"designation"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"unit_price"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"total_price"`

	// Position keeps the input order.
	Position int `gorm:"not null;default:0" json:"-"`
}

// FormattedDate returns the invoice date as DD/MM/YYYY.
func (i *Invoice) FormattedDate() string {
	return i.InvoiceDate.Format(DateLayout)
}

// Models lists every table owned by the application, in migration order.
func Models() []any {
	return []any{&Invoice{}, &Item{}}
}
