package invoicing

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BohBOhTN/ELKOLLA-API/internal/models"
	"github.com/BohBOhTN/ELKOLLA-API/internal/numbering"
)

// memStore is an in-memory Store enforcing number uniqueness like the SQL
// store does.
type memStore struct {
	mu       sync.Mutex
	nextID   uint
	invoices map[uint]models.Invoice

	// beforeSave runs inside Save before the uniqueness check.
	beforeSave func(s *memStore, inv *models.Invoice)
	saves      int
}

func newMemStore() *memStore {
	return &memStore{invoices: map[uint]models.Invoice{}}
}

func (s *memStore) MaxSequence(_ context.Context, year int, month time.Month) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := numbering.Prefix(year, month)
	hi, ok := 0, false
	for _, inv := range s.invoices {
		if strings.HasPrefix(inv.InvoiceNumber, prefix) && inv.Sequence > hi {
			hi, ok = inv.Sequence, true
		}
	}
	return hi, ok, nil
}

func (s *memStore) Exists(_ context.Context, number string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byNumber(number) != nil, nil
}

func (s *memStore) byNumber(number string) *models.Invoice {
	for _, inv := range s.invoices {
		if inv.InvoiceNumber == number {
			return &inv
		}
	}
	return nil
}

// insert stores inv under the lock already held by the caller.
func (s *memStore) insert(inv models.Invoice) uint {
	s.nextID++
	inv.ID = s.nextID
	items := make([]models.Item, len(inv.Items))
	copy(items, inv.Items)
	for i := range items {
		items[i].InvoiceID = inv.ID
	}
	inv.Items = items
	s.invoices[inv.ID] = inv
	return inv.ID
}

func (s *memStore) Save(_ context.Context, inv *models.Invoice) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.beforeSave != nil {
		s.beforeSave(s, inv)
	}
	if s.byNumber(inv.InvoiceNumber) != nil {
		return 0, ErrDuplicateNumber
	}
	return s.insert(*inv), nil
}

func (s *memStore) Find(_ context.Context, l Lookup) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID != 0 {
		if inv, ok := s.invoices[l.ID]; ok {
			return &inv, nil
		}
		return nil, ErrInvoiceNotFound
	}
	if inv := s.byNumber(l.Number); inv != nil {
		return inv, nil
	}
	return nil, ErrInvoiceNotFound
}

func (s *memStore) List(_ context.Context, f DateFilter) ([]models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Invoice
	for _, inv := range s.invoices {
		if f.Match(inv.InvoiceDate) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) Delete(_ context.Context, id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invoices[id]; !ok {
		return false, nil
	}
	delete(s.invoices, id)
	return true, nil
}
