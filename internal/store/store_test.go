package store

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/BohBOhTN/ELKOLLA-API/internal/config"
	"github.com/BohBOhTN/ELKOLLA-API/internal/db"
	"github.com/BohBOhTN/ELKOLLA-API/internal/invoicing"
	"github.com/BohBOhTN/ELKOLLA-API/internal/models"
	"github.com/BohBOhTN/ELKOLLA-API/internal/money"
	"github.com/BohBOhTN/ELKOLLA-API/internal/numbering"
	"github.com/BohBOhTN/ELKOLLA-API/internal/words"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func setupStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	cfg := config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: "file:" + t.Name() + "?mode=memory&cache=shared",
	}
	conn, err := db.Open(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn, cfg, false, zap.NewNop()))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return New(conn), conn
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func invoice(number string, seq int, date time.Time, items ...models.Item) *models.Invoice {
	return &models.Invoice{
		InvoiceNumber:    number,
		Sequence:         seq,
		ClientName:       "Client SARL",
		VATNumber:        "1234567A",
		InvoiceDate:      date,
		SubtotalHT:       decimal.RequireFromString("21.009"),
		TaxAmount:        decimal.RequireFromString("1.471"),
		StampFee:         decimal.RequireFromString("1.000"),
		FinalAmount:      decimal.RequireFromString("23.480"),
		FinalAmountWords: "vingt-trois dinars et quatre cent quatre-vingts millimes",
		Items:            items,
	}
}

func item(pos int, ref string) models.Item {
	return models.Item{
		Reference:  ref,
		Quantity:   1,
		UnitPrice:  decimal.RequireFromString("10.500"),
		TotalPrice: decimal.RequireFromString("10.500"),
		Position:   pos,
	}
}

func countItems(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&models.Item{}).Count(&n).Error)
	return n
}

func TestSaveAndFind(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, invoice("0124_001", 1, day(2024, 1, 15), item(1, "B"), item(0, "A")))
	require.NoError(t, err)
	require.NotZero(t, id)

	byID, err := s.Find(ctx, invoicing.Lookup{ID: id})
	require.NoError(t, err)
	assert.Equal(t, "0124_001", byID.InvoiceNumber)
	assert.Equal(t, "15/01/2024", byID.FormattedDate())
	assert.Equal(t, "23.480", money.Format(byID.FinalAmount))
	require.Len(t, byID.Items, 2)
	assert.Equal(t, "A", byID.Items[0].Reference, "items come back in position order")
	assert.Equal(t, "B", byID.Items[1].Reference)
	assert.Equal(t, id, byID.Items[0].InvoiceID)

	byNumber, err := s.Find(ctx, invoicing.Lookup{Number: "0124_001"})
	require.NoError(t, err)
	assert.Equal(t, id, byNumber.ID)

	_, err = s.Find(ctx, invoicing.Lookup{Number: "0999_001"})
	assert.ErrorIs(t, err, invoicing.ErrInvoiceNotFound)
}

func TestSaveDuplicateNumber(t *testing.T) {
	s, conn := setupStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, invoice("0124_001", 1, day(2024, 1, 2), item(0, "A")))
	require.NoError(t, err)

	_, err = s.Save(ctx, invoice("0124_001", 1, day(2024, 1, 3), item(0, "X"), item(1, "Y")))
	require.ErrorIs(t, err, invoicing.ErrDuplicateNumber)
	assert.Equal(t, int64(1), countItems(t, conn), "failed save must not leave items")

	ok, err := s.Exists(ctx, "0124_001")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Exists(ctx, "0124_002")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMaxSequenceIsNumeric(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	_, ok, err := s.MaxSequence(ctx, 2024, time.March)
	require.NoError(t, err)
	assert.False(t, ok)

	for _, inv := range []*models.Invoice{
		invoice("0324_099", 99, day(2024, 3, 1)),
		invoice("0324_100", 100, day(2024, 3, 31)),
		invoice("0424_500", 500, day(2024, 4, 1)),
		invoice("0323_700", 700, day(2023, 3, 10)),
	} {
		_, err := s.Save(ctx, inv)
		require.NoError(t, err)
	}

	seq, ok, err := s.MaxSequence(ctx, 2024, time.March)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 100, seq)
}

func TestMaxSequenceSharesCenturyPrefix(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, invoice("0124_007", 7, day(1924, 1, 15)))
	require.NoError(t, err)
	_, err = s.Save(ctx, invoice("01245003", 3, day(2024, 1, 15)))
	require.NoError(t, err)

	seq, ok, err := s.MaxSequence(ctx, 2024, time.January)
	require.NoError(t, err)
	assert.True(t, ok, "a 1924 invoice occupies the 0124_ space")
	assert.Equal(t, 7, seq, "the underscore must match literally")

	n, err := numbering.Next(ctx, day(2024, 1, 20), s)
	require.NoError(t, err)
	assert.Equal(t, "0124_008", n.String())
}

func TestList(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()
	for _, inv := range []*models.Invoice{
		invoice("0124_002", 2, day(2024, 1, 15)),
		invoice("0124_001", 1, day(2024, 1, 15)),
		invoice("0224_001", 1, day(2024, 2, 15)),
		invoice("0123_001", 1, day(2023, 1, 20)),
	} {
		_, err := s.Save(ctx, inv)
		require.NoError(t, err)
	}

	numbers := func(f invoicing.DateFilter) []string {
		t.Helper()
		list, err := s.List(ctx, f)
		require.NoError(t, err)
		out := make([]string, 0, len(list))
		for _, inv := range list {
			out = append(out, inv.InvoiceNumber)
		}
		return out
	}

	assert.Equal(t, []string{"0123_001", "0124_001", "0124_002", "0224_001"}, numbers(invoicing.DateFilter{}))
	assert.Equal(t, []string{"0124_001", "0124_002", "0224_001"}, numbers(invoicing.DateFilter{Year: 2024}))
	assert.Equal(t, []string{"0124_001", "0124_002"}, numbers(invoicing.DateFilter{Year: 2024, Month: time.January}))
	assert.Equal(t, []string{"0124_001", "0124_002", "0224_001"}, numbers(invoicing.DateFilter{Day: 15}))
	assert.Equal(t, []string{"0123_001", "0124_001", "0124_002"}, numbers(invoicing.DateFilter{Month: time.January}))
	assert.Empty(t, numbers(invoicing.DateFilter{Year: 2024, Month: time.January, Day: 16}))
}

func TestDeleteRemovesItems(t *testing.T) {
	s, conn := setupStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, invoice("0124_001", 1, day(2024, 1, 2), item(0, "A"), item(1, "B")))
	require.NoError(t, err)
	keep, err := s.Save(ctx, invoice("0124_002", 2, day(2024, 1, 2), item(0, "C")))
	require.NoError(t, err)

	deleted, err := s.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, int64(1), countItems(t, conn))

	deleted, err = s.Delete(ctx, id)
	require.NoError(t, err)
	assert.False(t, deleted)

	other, err := s.Find(ctx, invoicing.Lookup{ID: keep})
	require.NoError(t, err)
	assert.Len(t, other.Items, 1)
}

func TestParallelCreateAllocatesUniqueNumbers(t *testing.T) {
	s, _ := setupStore(t)
	const n = 8
	asm := invoicing.NewAssembler(s, words.Dinars, money.DefaultRates(), zap.NewNop())
	svc := invoicing.NewService(s, asm, n, zap.NewNop())

	results := make([]string, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			inv, err := svc.Create(context.Background(), invoicing.Draft{
				ClientName:  fmt.Sprintf("Client %d", i),
				VATNumber:   "VAT",
				InvoiceDate: "10/01/2024",
				Items:       []invoicing.DraftItem{{Reference: "R", Quantity: 1, UnitPrice: decimal.RequireFromString("5.000")}},
			})
			if err != nil {
				return err
			}
			results[i] = inv.InvoiceNumber
			return nil
		})
	}
	require.NoError(t, g.Wait())

	sort.Strings(results)
	want := make([]string, n)
	for i := range want {
		want[i] = fmt.Sprintf("0124_%03d", i+1)
	}
	assert.Equal(t, want, results)
}
