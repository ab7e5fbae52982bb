// Package store persists invoices with gorm on PostgreSQL or SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BohBOhTN/ELKOLLA-API/internal/invoicing"
	"github.com/BohBOhTN/ELKOLLA-API/internal/models"
	"github.com/BohBOhTN/ELKOLLA-API/internal/numbering"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// Store implements invoicing.Store.
type Store struct {
	db *gorm.DB
}

var _ invoicing.Store = (*Store)(nil)

// New wraps an open, migrated database.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// MaxSequence returns the highest numeric suffix stored under the month's
// number prefix. The underscore is escaped since LIKE treats it as a wildcard.
func (s *Store) MaxSequence(ctx context.Context, year int, month time.Month) (int, bool, error) {
	pattern := strings.TrimSuffix(numbering.Prefix(year, month), "_") + "!_%"
	var seq sql.NullInt64
	err := s.db.WithContext(ctx).Model(&models.Invoice{}).
		Select("MAX(sequence)").
		Where("invoice_number LIKE ? ESCAPE '!'", pattern).
		Row().Scan(&seq)
	if err != nil {
		return 0, false, fmt.Errorf("store: max sequence %02d/%d: %w", int(month), year, err)
	}
	if !seq.Valid {
		return 0, false, nil
	}
	return int(seq.Int64), true, nil
}

// Exists reports whether an invoice already uses number.
func (s *Store) Exists(ctx context.Context, number string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("invoice_number = ?", number).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("store: exists %s: %w", number, err)
	}
	return count > 0, nil
}

// Save inserts the header then its items in one transaction.
func (s *Store) Save(ctx context.Context, inv *models.Invoice) (uint, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(inv).Error; err != nil {
			return err
		}
		if len(inv.Items) == 0 {
			return nil
		}
		for i := range inv.Items {
			inv.Items[i].InvoiceID = inv.ID
		}
		return tx.Create(&inv.Items).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", invoicing.ErrDuplicateNumber, inv.InvoiceNumber)
		}
		return 0, fmt.Errorf("store: save %s: %w", inv.InvoiceNumber, err)
	}
	return inv.ID, nil
}

// Find loads an invoice and its items in input order.
func (s *Store) Find(ctx context.Context, l invoicing.Lookup) (*models.Invoice, error) {
	q := s.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position, item_id")
	})
	if l.ID != 0 {
		q = q.Where("invoice_id = ?", l.ID)
	} else {
		q = q.Where("invoice_number = ?", l.Number)
	}
	var inv models.Invoice
	if err := q.First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", invoicing.ErrInvoiceNotFound, l)
		}
		return nil, fmt.Errorf("store: find %s: %w", l, err)
	}
	return &inv, nil
}

// List returns invoice headers ordered by date and sequence. Filters that do
// not form a contiguous date range are applied after loading.
func (s *Store) List(ctx context.Context, f invoicing.DateFilter) ([]models.Invoice, error) {
	q := s.db.WithContext(ctx).Order("invoice_date, sequence")
	start, end, contiguous := f.Range()
	if contiguous {
		q = q.Where("invoice_date >= ? AND invoice_date < ?", start, end)
	}
	var invoices []models.Invoice
	if err := q.Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	if contiguous {
		return invoices, nil
	}
	out := invoices[:0]
	for _, inv := range invoices {
		if f.Match(inv.InvoiceDate) {
			out = append(out, inv)
		}
	}
	return out, nil
}

// Delete removes the items then the header in one transaction.
func (s *Store) Delete(ctx context.Context, id uint) (bool, error) {
	var deleted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&models.Item{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Invoice{}, id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("store: delete %d: %w", id, err)
	}
	return deleted, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "duplicate key")
}
