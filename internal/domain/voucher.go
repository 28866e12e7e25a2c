package domain

import (
	"time"
)

type VoucherType string

const (
	VoucherTypeDelivery   VoucherType = "delivery"
	VoucherTypeEvacuation VoucherType = "evacuation"
	VoucherTypeConcrete   VoucherType = "concrete"
	VoucherTypeMaterials  VoucherType = "materials"
)

// IsValid returns true for one of the four known voucher types
func (t VoucherType) IsValid() bool {
	switch t {
	case VoucherTypeDelivery, VoucherTypeEvacuation, VoucherTypeConcrete, VoucherTypeMaterials:
		return true
	}
	return false
}

// Voucher is a site activity record produced by the daily report extraction.
// It is immutable from this tool's perspective except for its invoice-link
// state, which is managed exclusively through the link resolver.
type Voucher struct {
	ID        int64
	ProjectID int64
	Type      VoucherType
	Supplier  string
	Date      time.Time
	Quantity  float64
	Unit      string
	UnitPrice *float64 // nil when the price is not yet known

	// Type-specific descriptor: exactly one group is meaningful per type
	Materials      string // materials vouchers
	ConcreteGrade  string // concrete vouchers
	LoadLocation   string // delivery/evacuation vouchers
	UnloadLocation string

	Status    string // reporting-side status label, passed through as-is
	InvoiceID *int64 // nil = available (populated from the active link, if any)
	CreatedAt time.Time
}

// Amount returns quantity × unit price, or 0 when no price is set.
// This is the live value; linked invoices keep their own snapshot.
func (v *Voucher) Amount() float64 {
	if v.UnitPrice == nil {
		return 0
	}
	return v.Quantity * *v.UnitPrice
}

// IsAvailable returns true if the voucher holds no active invoice link
func (v *Voucher) IsAvailable() bool {
	return v.InvoiceID == nil
}

// Validate returns an error if the voucher is invalid
func (v *Voucher) Validate() error {
	verr := NewValidationError()
	if v.ProjectID <= 0 {
		verr.Add("projectId", "required")
	}
	if !v.Type.IsValid() {
		verr.Add("type", "must be delivery, evacuation, concrete, or materials")
	}
	if v.Supplier == "" {
		verr.Add("supplier", "required")
	}
	if v.Date.IsZero() {
		verr.Add("date", "required")
	}
	if v.Quantity < 0 {
		verr.Add("quantity", "must not be negative")
	}
	if v.UnitPrice != nil && *v.UnitPrice < 0 {
		verr.Add("unitPrice", "must not be negative")
	}
	return verr.OrNil()
}
