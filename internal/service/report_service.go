package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bobzap/batisync/internal/domain"
	"github.com/bobzap/batisync/internal/repository"
)

// Summary aggregates a set of invoices for dashboard display
type Summary struct {
	Total        int
	AmountHT     float64
	AmountTTC    float64
	ByStatus     map[domain.InvoiceStatus]int
	PaidCount    int
	UnpaidCount  int
	OverdueCount int
	DueSoonCount int
}

// Summarize computes the aggregate view of a set of invoices. It is a
// pure function of its inputs; overdue and due-soon are judged against
// the supplied reference instant, never the wall clock.
func Summarize(invoices []*domain.Invoice, now time.Time) Summary {
	summary := Summary{
		ByStatus: make(map[domain.InvoiceStatus]int, len(domain.AllInvoiceStatuses)),
	}
	for _, status := range domain.AllInvoiceStatuses {
		summary.ByStatus[status] = 0
	}

	for _, inv := range invoices {
		summary.Total++
		summary.AmountHT += inv.AmountHT
		summary.AmountTTC += inv.AmountTTC
		summary.ByStatus[inv.Status]++

		if inv.IsPaid() {
			summary.PaidCount++
		} else {
			summary.UnpaidCount++
		}
		if inv.IsOverdue(now) {
			summary.OverdueCount++
		}
		if inv.IsDueSoon(now) {
			summary.DueSoonCount++
		}
	}

	summary.AmountHT = domain.Round2(summary.AmountHT)
	summary.AmountTTC = domain.Round2(summary.AmountTTC)
	return summary
}

// SortField names an invoice field usable as a sort key
type SortField string

const (
	SortByNumber    SortField = "number"
	SortBySupplier  SortField = "supplier"
	SortByDate      SortField = "date"
	SortByDueDate   SortField = "dueDate"
	SortByAmountHT  SortField = "amountHT"
	SortByAmountTTC SortField = "amountTTC"
	SortByStatus    SortField = "status"
)

// SortInvoices sorts in place by the given field. The sort is stable,
// so toggling direction on equal keys preserves the prior order rather
// than reversing it. Unknown fields leave the slice untouched.
func SortInvoices(invoices []*domain.Invoice, field SortField, descending bool) {
	var less func(a, b *domain.Invoice) bool

	switch field {
	case SortByNumber:
		less = func(a, b *domain.Invoice) bool {
			return strings.ToLower(a.Number) < strings.ToLower(b.Number)
		}
	case SortBySupplier:
		less = func(a, b *domain.Invoice) bool {
			return strings.ToLower(a.Supplier) < strings.ToLower(b.Supplier)
		}
	case SortByDate:
		less = func(a, b *domain.Invoice) bool { return a.Date.Before(b.Date) }
	case SortByDueDate:
		less = func(a, b *domain.Invoice) bool { return a.DueDate.Before(b.DueDate) }
	case SortByAmountHT:
		less = func(a, b *domain.Invoice) bool { return a.AmountHT < b.AmountHT }
	case SortByAmountTTC:
		less = func(a, b *domain.Invoice) bool { return a.AmountTTC < b.AmountTTC }
	case SortByStatus:
		less = func(a, b *domain.Invoice) bool { return a.Status < b.Status }
	default:
		return
	}

	sort.SliceStable(invoices, func(i, j int) bool {
		if descending {
			return less(invoices[j], invoices[i])
		}
		return less(invoices[i], invoices[j])
	})
}

// ReportService produces project-level financial views
type ReportService interface {
	// ProjectSummary aggregates the invoices matching the filters
	ProjectSummary(ctx context.Context, projectID int64, filters repository.InvoiceFilters, now time.Time) (Summary, error)

	// UnbilledTotal sums the live amounts of vouchers not yet linked to
	// any invoice
	UnbilledTotal(ctx context.Context, projectID int64) (float64, error)
}

type reportService struct {
	invoiceRepo repository.InvoiceRepository
	voucherRepo repository.VoucherRepository
}

// NewReportService creates a new report service
func NewReportService(invoiceRepo repository.InvoiceRepository, voucherRepo repository.VoucherRepository) ReportService {
	return &reportService{invoiceRepo: invoiceRepo, voucherRepo: voucherRepo}
}

func (s *reportService) ProjectSummary(ctx context.Context, projectID int64, filters repository.InvoiceFilters, now time.Time) (Summary, error) {
	filters.Now = now
	invoices, err := s.invoiceRepo.List(ctx, projectID, filters)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(invoices, now), nil
}

func (s *reportService) UnbilledTotal(ctx context.Context, projectID int64) (float64, error) {
	vouchers, err := s.voucherRepo.ListAvailable(ctx, projectID, repository.VoucherFilters{})
	if err != nil {
		return 0, err
	}

	var total float64
	for _, v := range vouchers {
		total += v.Amount()
	}
	return domain.Round2(total), nil
}
