package service

import (
	"testing"
	"time"

	"github.com/bobzap/batisync/internal/domain"
)

func reportInvoice(number string, status domain.InvoiceStatus, ht, ttc float64, due time.Time, paid *time.Time) *domain.Invoice {
	return &domain.Invoice{
		Number:      number,
		Status:      status,
		AmountHT:    ht,
		AmountTTC:   ttc,
		DueDate:     due,
		PaymentDate: paid,
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	paidDate := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	invoices := []*domain.Invoice{
		reportInvoice("F-001", domain.InvoiceStatusValidated, 100, 107.70, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), &paidDate),
		reportInvoice("F-002", domain.InvoiceStatusPending, 200, 215.40, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), nil), // overdue
		reportInvoice("F-003", domain.InvoiceStatusDraft, 300, 323.10, time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC), nil),   // due soon
		reportInvoice("F-004", domain.InvoiceStatusDraft, 400, 430.80, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), nil),
	}

	s := Summarize(invoices, now)

	if s.Total != 4 {
		t.Fatalf("expected 4 invoices, got %d", s.Total)
	}
	if s.AmountHT != 1000 {
		t.Fatalf("expected HT 1000, got %v", s.AmountHT)
	}
	if s.AmountTTC != 1077.00 {
		t.Fatalf("expected TTC 1077.00, got %v", s.AmountTTC)
	}
	if s.PaidCount != 1 || s.UnpaidCount != 3 {
		t.Fatalf("expected 1 paid / 3 unpaid, got %d / %d", s.PaidCount, s.UnpaidCount)
	}
	if s.OverdueCount != 1 {
		t.Fatalf("expected 1 overdue, got %d", s.OverdueCount)
	}
	if s.DueSoonCount != 1 {
		t.Fatalf("expected 1 due soon, got %d", s.DueSoonCount)
	}
	if s.ByStatus[domain.InvoiceStatusDraft] != 2 {
		t.Fatalf("expected 2 drafts, got %d", s.ByStatus[domain.InvoiceStatusDraft])
	}
	if s.ByStatus[domain.InvoiceStatusRejected] != 0 {
		t.Fatalf("expected rejected bucket present and empty")
	}

	// Every invoice lands in exactly one status bucket
	bucketSum := 0
	for _, n := range s.ByStatus {
		bucketSum += n
	}
	if bucketSum != s.Total {
		t.Fatalf("status buckets sum to %d, want %d", bucketSum, s.Total)
	}
}

func TestSummarizeUsesReferenceInstant(t *testing.T) {
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	invoices := []*domain.Invoice{
		reportInvoice("F-001", domain.InvoiceStatusPending, 100, 107.70, due, nil),
	}

	before := Summarize(invoices, time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC))
	if before.OverdueCount != 0 {
		t.Fatalf("not overdue before the due date, got %d", before.OverdueCount)
	}

	onDay := Summarize(invoices, time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC))
	if onDay.OverdueCount != 0 {
		t.Fatalf("due date counts as end-of-day, got %d overdue", onDay.OverdueCount)
	}

	after := Summarize(invoices, time.Date(2026, 3, 11, 0, 1, 0, 0, time.UTC))
	if after.OverdueCount != 1 {
		t.Fatalf("expected overdue the day after the due date, got %d", after.OverdueCount)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, time.Now())
	if s.Total != 0 || s.AmountHT != 0 || s.AmountTTC != 0 {
		t.Fatalf("expected zero summary, got %+v", s)
	}
	if len(s.ByStatus) != len(domain.AllInvoiceStatuses) {
		t.Fatalf("expected all status buckets present, got %d", len(s.ByStatus))
	}
}

func TestSortInvoices(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC) }

	invoices := []*domain.Invoice{
		{Number: "B", AmountTTC: 300, Date: d(2)},
		{Number: "A", AmountTTC: 100, Date: d(3)},
		{Number: "C", AmountTTC: 200, Date: d(1)},
	}

	SortInvoices(invoices, SortByNumber, false)
	if invoices[0].Number != "A" || invoices[2].Number != "C" {
		t.Fatalf("ascending number sort failed: %v %v %v",
			invoices[0].Number, invoices[1].Number, invoices[2].Number)
	}

	SortInvoices(invoices, SortByNumber, true)
	if invoices[0].Number != "C" || invoices[2].Number != "A" {
		t.Fatalf("descending number sort failed: %v %v %v",
			invoices[0].Number, invoices[1].Number, invoices[2].Number)
	}

	SortInvoices(invoices, SortByAmountTTC, false)
	if invoices[0].AmountTTC != 100 || invoices[2].AmountTTC != 300 {
		t.Fatalf("amount sort failed")
	}
}

func TestSortInvoicesIsStable(t *testing.T) {
	d := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// All equal dates: order must be preserved in both directions
	invoices := []*domain.Invoice{
		{Number: "first", Date: d},
		{Number: "second", Date: d},
		{Number: "third", Date: d},
	}

	SortInvoices(invoices, SortByDate, false)
	if invoices[0].Number != "first" || invoices[2].Number != "third" {
		t.Fatalf("ascending sort reordered equal keys")
	}

	SortInvoices(invoices, SortByDate, true)
	if invoices[0].Number != "first" || invoices[2].Number != "third" {
		t.Fatalf("descending sort reordered equal keys")
	}
}

func TestSortInvoicesUnknownFieldIsNoop(t *testing.T) {
	invoices := []*domain.Invoice{
		{Number: "B"},
		{Number: "A"},
	}

	SortInvoices(invoices, SortField("bogus"), false)
	if invoices[0].Number != "B" {
		t.Fatalf("unknown sort field must leave order untouched")
	}
}
