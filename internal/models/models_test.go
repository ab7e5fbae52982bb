package models

import (
	"testing"
	"time"
)

func TestInvoice_FormattedDate(t *testing.T) {
	inv := &Invoice{InvoiceDate: time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)}
	if got := inv.FormattedDate(); got != "01/02/2024" {
		t.Errorf("FormattedDate() = %q, want 01/02/2024", got)
	}
}

func TestModels(t *testing.T) {
	if got := len(Models()); got != 2 {
		t.Fatalf("Models() returned %d tables, want 2", got)
	}
}
