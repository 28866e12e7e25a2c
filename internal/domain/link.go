package domain

import "time"

// VoucherLink associates one voucher with one invoice. Amount is the
// snapshot of quantity × unit price captured when the link was created;
// later voucher edits never change it, so historical invoice totals
// stay stable. A voucher id appears in at most one active link across
// the whole store.
type VoucherLink struct {
	ID        int64
	InvoiceID int64
	VoucherID int64
	Amount    float64 // snapshot, never recomputed
	CreatedAt time.Time
}

// NewVoucherLink captures a link with the voucher's current amount
func NewVoucherLink(voucher *Voucher) *VoucherLink {
	return &VoucherLink{
		VoucherID: voucher.ID,
		Amount:    voucher.Amount(),
		CreatedAt: time.Now(),
	}
}
