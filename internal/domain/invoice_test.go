package domain

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeTTC(t *testing.T) {
	tests := []struct {
		name     string
		amountHT float64
		vatRate  float64
		want     float64
	}{
		{"swiss standard rate", 1000, 7.7, 1077.00},
		{"zero vat", 500, 0, 500.00},
		{"rounding up", 99.99, 8.1, 108.09},
		{"zero amount", 0, 7.7, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Invoice{AmountHT: tt.amountHT, VATRate: tt.vatRate}
			inv.ComputeTTC()
			if inv.AmountTTC != tt.want {
				t.Fatalf("expected TTC %v, got %v", tt.want, inv.AmountTTC)
			}
		})
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(10.005); got != 10.01 {
		t.Fatalf("expected 10.01, got %v", got)
	}
	if got := Round2(10.004); got != 10.0 {
		t.Fatalf("expected 10.0, got %v", got)
	}
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)
	paid := date(2026, 3, 10)

	tests := []struct {
		name        string
		dueDate     time.Time
		paymentDate *time.Time
		want        bool
	}{
		{"due yesterday unpaid", date(2026, 3, 14), nil, true},
		{"due today is not overdue", date(2026, 3, 15), nil, false},
		{"due tomorrow", date(2026, 3, 16), nil, false},
		{"due yesterday but paid", date(2026, 3, 14), &paid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Invoice{DueDate: tt.dueDate, PaymentDate: tt.paymentDate}
			if got := inv.IsOverdue(now); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestIsDueSoon(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	paid := date(2026, 3, 10)

	tests := []struct {
		name        string
		dueDate     time.Time
		paymentDate *time.Time
		want        bool
	}{
		{"due today", date(2026, 3, 15), nil, true},
		{"due in 7 days", date(2026, 3, 22), nil, true},
		{"due in 8 days", date(2026, 3, 23), nil, false},
		{"already overdue", date(2026, 3, 14), nil, false},
		{"due tomorrow but paid", date(2026, 3, 16), &paid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Invoice{DueDate: tt.dueDate, PaymentDate: tt.paymentDate}
			if got := inv.IsDueSoon(now); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestInvoiceValidate(t *testing.T) {
	valid := NewInvoice(1, "F-2026-001", "Müller SA", date(2026, 3, 1), date(2026, 3, 31))
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	missing := NewInvoice(1, "", "", date(2026, 3, 1), date(2026, 3, 31))
	err := missing.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if _, ok := verr.Fields["number"]; !ok {
		t.Fatal("expected number to be flagged")
	}
	if _, ok := verr.Fields["supplier"]; !ok {
		t.Fatal("expected supplier to be flagged")
	}

	backwards := NewInvoice(1, "F-2026-002", "Müller SA", date(2026, 3, 31), date(2026, 3, 1))
	err = backwards.Validate()
	if err == nil {
		t.Fatal("expected validation error for due date before issue date")
	}
}

func TestVoucherAmount(t *testing.T) {
	price := 42.50
	v := &Voucher{Quantity: 3, UnitPrice: &price}
	if got := v.Amount(); got != 127.5 {
		t.Fatalf("expected 127.5, got %v", got)
	}

	noPrice := &Voucher{Quantity: 3}
	if got := noPrice.Amount(); got != 0 {
		t.Fatalf("expected 0 for unpriced voucher, got %v", got)
	}
}

func TestNewVoucherLinkSnapshotsAmount(t *testing.T) {
	price := 10.0
	v := &Voucher{ID: 7, Quantity: 4, UnitPrice: &price}

	link := NewVoucherLink(v)
	if link.Amount != 40 {
		t.Fatalf("expected snapshot 40, got %v", link.Amount)
	}

	// Changing the live price must not affect the snapshot
	newPrice := 99.0
	v.UnitPrice = &newPrice
	if link.Amount != 40 {
		t.Fatalf("snapshot changed after price update: %v", link.Amount)
	}
}
