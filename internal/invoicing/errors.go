package invoicing

import (
	"errors"

	"github.com/BohBOhTN/ELKOLLA-API/internal/money"
	"github.com/BohBOhTN/ELKOLLA-API/internal/numbering"
	"github.com/BohBOhTN/ELKOLLA-API/internal/words"
)

// Sentinel errors. Callers match them with errors.Is.
var (
	ErrInvalidLineItem  = money.ErrInvalidLineItem
	ErrAmountOverflow   = money.ErrAmountOverflow
	ErrSequenceOverflow = numbering.ErrSequenceOverflow
	ErrWordsUnavailable = words.ErrUnavailable

	ErrEmptyInvoice         = errors.New("invoicing: invoice has no line items")
	ErrInvalidDate          = errors.New("invoicing: invalid invoice date")
	ErrConcurrentAllocation = errors.New("invoicing: could not allocate a free invoice number")
	ErrInvoiceNotFound      = errors.New("invoicing: invoice not found")

	// ErrDuplicateNumber is returned by Store.Save when the invoice number is
	// already taken.
	ErrDuplicateNumber = errors.New("invoicing: duplicate invoice number")
)
