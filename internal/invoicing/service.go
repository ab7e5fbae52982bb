package invoicing

import (
	"context"
	"errors"
	"fmt"

	"github.com/BohBOhTN/ELKOLLA-API/internal/models"
	"go.uber.org/zap"
)

// DefaultMaxAttempts bounds the allocate+save retry loop.
const DefaultMaxAttempts = 5

// Service creates, looks up, lists and deletes invoices.
type Service struct {
	store       Store
	assembler   *Assembler
	maxAttempts int
	log         *zap.Logger
}

// NewService creates a service. maxAttempts <= 0 uses DefaultMaxAttempts.
func NewService(store Store, assembler *Assembler, maxAttempts int, log *zap.Logger) *Service {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, assembler: assembler, maxAttempts: maxAttempts, log: log}
}

// Create assembles and persists a new invoice. When another request takes
// the allocated number first, a fresh number is allocated and the save is
// retried, up to the configured number of attempts.
func (s *Service) Create(ctx context.Context, d Draft) (*models.Invoice, error) {
	inv, err := s.assembler.Prepare(ctx, d)
	if err != nil {
		return nil, err
	}
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.assembler.Number(ctx, inv); err != nil {
			return nil, err
		}
		taken, err := s.store.Exists(ctx, inv.InvoiceNumber)
		if err != nil {
			return nil, fmt.Errorf("invoicing: check number %s: %w", inv.InvoiceNumber, err)
		}
		if !taken {
			id, err := s.store.Save(ctx, inv)
			if err == nil {
				inv.ID = id
				s.log.Info("invoice created",
					zap.Uint("invoice_id", id),
					zap.String("invoice_number", inv.InvoiceNumber),
					zap.Int("attempt", attempt))
				return inv, nil
			}
			if !errors.Is(err, ErrDuplicateNumber) {
				return nil, fmt.Errorf("invoicing: save %s: %w", inv.InvoiceNumber, err)
			}
		}
		s.log.Debug("invoice number taken, retrying",
			zap.String("invoice_number", inv.InvoiceNumber), zap.Int("attempt", attempt))
		resetIDs(inv)
	}
	return nil, fmt.Errorf("%w after %d attempts for %s", ErrConcurrentAllocation, s.maxAttempts, inv.FormattedDate())
}

// resetIDs clears keys a failed transaction may have written back.
func resetIDs(inv *models.Invoice) {
	inv.ID = 0
	for i := range inv.Items {
		inv.Items[i].ID = 0
		inv.Items[i].InvoiceID = 0
	}
}

// Get returns the invoice with its items.
func (s *Service) Get(ctx context.Context, lookup Lookup) (*models.Invoice, error) {
	return s.store.Find(ctx, lookup)
}

// List returns the invoices matching the date filter.
func (s *Service) List(ctx context.Context, filter DateFilter) ([]models.Invoice, error) {
	return s.store.List(ctx, filter)
}

// Delete removes an invoice and its items.
func (s *Service) Delete(ctx context.Context, lookup Lookup) error {
	id := lookup.ID
	if id == 0 {
		inv, err := s.store.Find(ctx, lookup)
		if err != nil {
			return err
		}
		id = inv.ID
	}
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("invoicing: delete %s: %w", lookup, err)
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrInvoiceNotFound, lookup)
	}
	s.log.Info("invoice deleted", zap.Uint("invoice_id", id))
	return nil
}
