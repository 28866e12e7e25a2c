package service

import (
	"context"
	"fmt"

	"github.com/bobzap/batisync/internal/domain"
	"github.com/bobzap/batisync/internal/repository"
)

// LinkResolver maintains the voucher↔invoice link set of an invoice and
// is the single gatekeeper of link exclusivity. Draft-level operations
// (Attach, Detach, Total) are pure; CheckExclusive validates a draft's
// link set against the persisted state right before a save.
type LinkResolver struct {
	voucherRepo repository.VoucherRepository
}

// NewLinkResolver creates a new LinkResolver
func NewLinkResolver(voucherRepo repository.VoucherRepository) *LinkResolver {
	return &LinkResolver{voucherRepo: voucherRepo}
}

// Attach appends a link for the voucher, freezing its current amount as
// the snapshot. Attaching a voucher already present in the set is a
// no-op and returns the set unchanged.
func (r *LinkResolver) Attach(links []*domain.VoucherLink, voucher *domain.Voucher) []*domain.VoucherLink {
	for _, link := range links {
		if link.VoucherID == voucher.ID {
			return links
		}
	}
	return append(links, domain.NewVoucherLink(voucher))
}

// Detach removes the link holding the given voucher, if present
func (r *LinkResolver) Detach(links []*domain.VoucherLink, voucherID int64) []*domain.VoucherLink {
	out := make([]*domain.VoucherLink, 0, len(links))
	for _, link := range links {
		if link.VoucherID != voucherID {
			out = append(out, link)
		}
	}
	return out
}

// Total sums the snapshot amounts of the link set, rounded to 2 decimals
func (r *LinkResolver) Total(links []*domain.VoucherLink) float64 {
	var total float64
	for _, link := range links {
		total += link.Amount
	}
	return domain.Round2(total)
}

// CheckExclusive verifies against the persisted state that none of the
// draft's vouchers is held by a different invoice. invoiceID is 0 for a
// new invoice, so any persisted link is a conflict then.
func (r *LinkResolver) CheckExclusive(ctx context.Context, invoiceID int64, links []*domain.VoucherLink) error {
	for _, link := range links {
		active, err := r.voucherRepo.ActiveLink(ctx, link.VoucherID)
		if err != nil {
			return err
		}
		if active != nil && active.InvoiceID != invoiceID {
			return fmt.Errorf("voucher %d: %w", link.VoucherID, domain.ErrLinkConflict)
		}
	}
	return nil
}
