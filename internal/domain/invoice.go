package domain

import (
	"math"
	"time"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusValidated InvoiceStatus = "validated"
	InvoiceStatusRejected  InvoiceStatus = "rejected"
)

// AllInvoiceStatuses lists every status, in display order
var AllInvoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusPending,
	InvoiceStatusValidated,
	InvoiceStatusRejected,
}

// IsValid returns true for one of the four known statuses.
// Transitions between statuses are free; this is a classification,
// not a workflow.
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusPending, InvoiceStatusValidated, InvoiceStatusRejected:
		return true
	}
	return false
}

// Label returns the display label for the status
func (s InvoiceStatus) Label() string {
	switch s {
	case InvoiceStatusDraft:
		return "Draft"
	case InvoiceStatusPending:
		return "Pending"
	case InvoiceStatusValidated:
		return "Validated"
	case InvoiceStatusRejected:
		return "Rejected"
	}
	return string(s)
}

// Invoice is a supplier invoice scoped to a project. AmountTTC is derived
// from AmountHT and VATRate and must be recomputed whenever either changes.
type Invoice struct {
	ID               int64
	ProjectID        int64
	Number           string // unique per project
	Reference        string // optional free-text supplier reference
	Supplier         string
	Date             time.Time // issue date
	DueDate          time.Time
	AmountHT         float64
	VATRate          float64 // percent (7.7 = 7.7%)
	AmountTTC        float64 // derived
	Status           InvoiceStatus
	PaymentDate      *time.Time
	PaymentReference string
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Related data (populated by repository)
	Documents []*Document
	Links     []*VoucherLink
}

// NewInvoice creates a new draft invoice
func NewInvoice(projectID int64, number, supplier string, date, dueDate time.Time) *Invoice {
	now := time.Now()
	return &Invoice{
		ProjectID: projectID,
		Number:    number,
		Supplier:  supplier,
		Date:      date,
		DueDate:   dueDate,
		Status:    InvoiceStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
		Documents: make([]*Document, 0),
		Links:     make([]*VoucherLink, 0),
	}
}

// Round2 rounds a monetary amount to 2 decimals
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// ComputeTTC recomputes the VAT-inclusive total from AmountHT and VATRate
func (i *Invoice) ComputeTTC() {
	i.AmountTTC = Round2(i.AmountHT * (1 + i.VATRate/100))
}

// IsPaid returns true if a payment date is recorded
func (i *Invoice) IsPaid() bool {
	return i.PaymentDate != nil
}

// IsOverdue returns true if the invoice is unpaid and its due date has
// passed relative to now. The due date counts as end-of-day, so the
// comparison is strict on calendar days.
func (i *Invoice) IsOverdue(now time.Time) bool {
	if i.IsPaid() {
		return false
	}
	return DateOnly(i.DueDate).Before(DateOnly(now))
}

// IsDueSoon returns true if the invoice is unpaid and due within the
// next 7 days (inclusive on both ends, calendar days).
func (i *Invoice) IsDueSoon(now time.Time) bool {
	if i.IsPaid() {
		return false
	}
	due := DateOnly(i.DueDate)
	today := DateOnly(now)
	return !due.Before(today) && !due.After(today.AddDate(0, 0, 7))
}

// LinkedVoucherIDs returns the voucher ids of the current link set
func (i *Invoice) LinkedVoucherIDs() []int64 {
	ids := make([]int64, len(i.Links))
	for n, link := range i.Links {
		ids[n] = link.VoucherID
	}
	return ids
}

// Validate reports missing or out-of-range required fields
func (i *Invoice) Validate() error {
	verr := NewValidationError()
	if i.ProjectID <= 0 {
		verr.Add("projectId", "required")
	}
	if i.Number == "" {
		verr.Add("number", "required")
	}
	if i.Supplier == "" {
		verr.Add("supplier", "required")
	}
	if i.Date.IsZero() {
		verr.Add("date", "required")
	}
	if i.DueDate.IsZero() {
		verr.Add("dueDate", "required")
	} else if !i.Date.IsZero() && DateOnly(i.DueDate).Before(DateOnly(i.Date)) {
		verr.Add("dueDate", "must not be before issue date")
	}
	if i.AmountHT < 0 {
		verr.Add("amountHT", "must not be negative")
	}
	if i.VATRate < 0 {
		verr.Add("vatRate", "must not be negative")
	}
	if !i.Status.IsValid() {
		verr.Add("status", "must be draft, pending, validated, or rejected")
	}
	return verr.OrNil()
}

// DateOnly truncates a time to its calendar day in its own location
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
