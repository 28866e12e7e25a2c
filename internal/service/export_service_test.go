package service

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"testing"
	"time"

	"github.com/bobzap/batisync/internal/domain"
)

func TestWriteInvoicesCSV(t *testing.T) {
	paid := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	invoices := []*domain.Invoice{
		{
			Number:      "F-2026-001",
			Reference:   "CMD-88",
			Supplier:    "Béton SA",
			Date:        time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
			DueDate:     time.Date(2026, 4, 4, 0, 0, 0, 0, time.UTC),
			AmountHT:    1000,
			AmountTTC:   1077,
			VATRate:     7.7,
			Status:      domain.InvoiceStatusValidated,
			PaymentDate: &paid,
		},
		{
			Number:    "F-2026-002",
			Supplier:  "Gravier Sàrl",
			Date:      time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
			DueDate:   time.Date(2026, 4, 19, 0, 0, 0, 0, time.UTC),
			AmountHT:  250.5,
			AmountTTC: 269.79,
			VATRate:   7.7,
			Status:    domain.InvoiceStatusPending,
		},
	}

	var buf bytes.Buffer
	if err := WriteInvoicesCSV(&buf, invoices); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}

	wantHeader := []string{"number", "reference", "supplier", "date", "due_date",
		"amount_ht", "amount_ttc", "vat_rate", "status", "payment_date"}
	if !reflect.DeepEqual(records[0], wantHeader) {
		t.Fatalf("header mismatch:\n got %v\nwant %v", records[0], wantHeader)
	}

	want1 := []string{"F-2026-001", "CMD-88", "Béton SA", "05/03/2026", "04/04/2026",
		"1000.00", "1077.00", "7.70", "Validated", "02/04/2026"}
	if !reflect.DeepEqual(records[1], want1) {
		t.Fatalf("row 1 mismatch:\n got %v\nwant %v", records[1], want1)
	}

	// Unpaid invoice: empty payment date column
	if records[2][9] != "" {
		t.Fatalf("expected empty payment_date for unpaid invoice, got %q", records[2][9])
	}
	if records[2][5] != "250.50" {
		t.Fatalf("expected amount with 2 decimals, got %q", records[2][5])
	}
}

func TestWriteInvoicesCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteInvoicesCSV(&buf, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected header only, got %d records", len(records))
	}
}
