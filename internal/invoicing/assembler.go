package invoicing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BohBOhTN/ELKOLLA-API/internal/models"
	"github.com/BohBOhTN/ELKOLLA-API/internal/money"
	"github.com/BohBOhTN/ELKOLLA-API/internal/numbering"
	"github.com/BohBOhTN/ELKOLLA-API/internal/words"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Draft is an invoice as submitted by a client, before numbering.
type Draft struct {
	ClientName  string
	VATNumber   string
	Address     string
	InvoiceDate string // DD/MM/YYYY
	Items       []DraftItem
}

// DraftItem is a submitted line.
type DraftItem struct {
	Reference   string
	Designation string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Assembler builds complete invoices from drafts. It never persists.
type Assembler struct {
	store SequenceStore
	words words.Converter
	rates money.Rates
	log   *zap.Logger
}

// SequenceStore is the part of Store the assembler reads.
type SequenceStore = numbering.SequenceFinder

// NewAssembler wires the collaborators. A nil logger disables logging.
func NewAssembler(store SequenceStore, converter words.Converter, rates money.Rates, log *zap.Logger) *Assembler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assembler{store: store, words: converter, rates: rates, log: log}
}

// ParseDate parses a DD/MM/YYYY date. Impossible dates such as 31/02/2024 are
// rejected.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(models.DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q (want DD/MM/YYYY)", ErrInvalidDate, s)
	}
	return d, nil
}

// Assemble validates the draft, computes totals, allocates a number and
// renders the amount in words.
func (a *Assembler) Assemble(ctx context.Context, d Draft) (*models.Invoice, error) {
	inv, err := a.Prepare(ctx, d)
	if err != nil {
		return nil, err
	}
	if err := a.Number(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Prepare does everything Assemble does except numbering.
func (a *Assembler) Prepare(ctx context.Context, d Draft) (*models.Invoice, error) {
	if len(d.Items) == 0 {
		return nil, ErrEmptyInvoice
	}
	date, err := ParseDate(d.InvoiceDate)
	if err != nil {
		return nil, err
	}

	lines := make([]money.Line, len(d.Items))
	for i, it := range d.Items {
		lines[i] = money.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	totals, err := money.ComputeTotals(lines, a.rates)
	if err != nil {
		return nil, err
	}

	items := make([]models.Item, len(d.Items))
	for i, it := range d.Items {
		items[i] = models.Item{
			Reference:   it.Reference,
			Designation: it.Designation,
			Quantity:    it.Quantity,
			UnitPrice:   money.Round(it.UnitPrice),
			TotalPrice:  money.LineTotal(it.UnitPrice, it.Quantity),
			Position:    i,
		}
	}

	return &models.Invoice{
		ClientName:       strings.TrimSpace(d.ClientName),
		VATNumber:        strings.TrimSpace(d.VATNumber),
		Address:          strings.TrimSpace(d.Address),
		InvoiceDate:      date,
		SubtotalHT:       totals.SubtotalHT,
		TaxAmount:        totals.TaxAmount,
		StampFee:         totals.StampFee,
		FinalAmount:      totals.FinalAmount,
		FinalAmountWords: a.amountInWords(ctx, totals.FinalAmount),
		Items:            items,
	}, nil
}

// Number allocates the next free number of the invoice's month.
func (a *Assembler) Number(ctx context.Context, inv *models.Invoice) error {
	n, err := numbering.Next(ctx, inv.InvoiceDate, a.store)
	if err != nil {
		return err
	}
	inv.InvoiceNumber = n.String()
	inv.Sequence = n.Sequence
	return nil
}

func (a *Assembler) amountInWords(ctx context.Context, amount decimal.Decimal) string {
	if a.words == nil {
		return words.Placeholder
	}
	s, err := a.words.Words(ctx, amount)
	if err == nil && strings.TrimSpace(s) != "" {
		return s
	}
	if err == nil {
		err = fmt.Errorf("%w: empty result", ErrWordsUnavailable)
	}
	if !errors.Is(err, ErrWordsUnavailable) {
		err = fmt.Errorf("%w: %v", ErrWordsUnavailable, err)
	}
	a.log.Warn("amount in words unavailable, storing placeholder",
		zap.String("amount", money.Format(amount)), zap.Error(err))
	return words.Placeholder
}
