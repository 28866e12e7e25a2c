package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bobzap/batisync/internal/domain"
)

func testVoucher(id int64, price float64, qty float64) *domain.Voucher {
	return &domain.Voucher{
		ID:        id,
		ProjectID: 1,
		Type:      domain.VoucherTypeDelivery,
		Supplier:  "Transport SA",
		Date:      time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Quantity:  qty,
		UnitPrice: &price,
	}
}

func TestAttachIsIdempotent(t *testing.T) {
	r := NewLinkResolver(&mockVoucherRepo{})
	v := testVoucher(1, 10, 2)

	links := r.Attach(nil, v)
	links = r.Attach(links, v)

	if len(links) != 1 {
		t.Fatalf("expected 1 link after duplicate attach, got %d", len(links))
	}
}

func TestAttachSnapshotsCurrentAmount(t *testing.T) {
	r := NewLinkResolver(&mockVoucherRepo{})
	v := testVoucher(1, 10, 2)

	links := r.Attach(nil, v)
	if links[0].Amount != 20 {
		t.Fatalf("expected snapshot 20, got %v", links[0].Amount)
	}

	// Price changes after attach must not move the snapshot
	newPrice := 500.0
	v.UnitPrice = &newPrice
	if links[0].Amount != 20 {
		t.Fatalf("snapshot moved with live price: %v", links[0].Amount)
	}
}

func TestAttachUnpricedVoucherSnapshotsZero(t *testing.T) {
	r := NewLinkResolver(&mockVoucherRepo{})
	v := &domain.Voucher{ID: 2, ProjectID: 1, Quantity: 5}

	links := r.Attach(nil, v)
	if links[0].Amount != 0 {
		t.Fatalf("expected snapshot 0 for unpriced voucher, got %v", links[0].Amount)
	}
}

func TestDetach(t *testing.T) {
	r := NewLinkResolver(&mockVoucherRepo{})
	links := r.Attach(nil, testVoucher(1, 10, 1))
	links = r.Attach(links, testVoucher(2, 10, 1))

	links = r.Detach(links, 1)
	if len(links) != 1 || links[0].VoucherID != 2 {
		t.Fatalf("expected only voucher 2 to remain, got %+v", links)
	}

	// Detaching an absent voucher is a no-op
	links = r.Detach(links, 42)
	if len(links) != 1 {
		t.Fatalf("detach of absent voucher changed the set: %+v", links)
	}
}

func TestTotalRounds(t *testing.T) {
	r := NewLinkResolver(&mockVoucherRepo{})
	links := []*domain.VoucherLink{
		{VoucherID: 1, Amount: 10.104},
		{VoucherID: 2, Amount: 20.103},
	}

	if got := r.Total(links); got != 30.21 {
		t.Fatalf("expected 30.21, got %v", got)
	}
}

func TestCheckExclusive(t *testing.T) {
	ctx := context.Background()

	vRepo := &mockVoucherRepo{
		links: map[int64]*domain.VoucherLink{
			1: {ID: 10, InvoiceID: 5, VoucherID: 1, Amount: 20},
		},
	}
	r := NewLinkResolver(vRepo)

	links := []*domain.VoucherLink{{VoucherID: 1, Amount: 20}}

	// Held by the same invoice: fine
	if err := r.CheckExclusive(ctx, 5, links); err != nil {
		t.Fatalf("unexpected error for own link: %v", err)
	}

	// Held by another invoice: conflict
	if err := r.CheckExclusive(ctx, 6, links); !errors.Is(err, domain.ErrLinkConflict) {
		t.Fatalf("expected ErrLinkConflict, got %v", err)
	}

	// New invoice (id 0): any persisted link is a conflict
	if err := r.CheckExclusive(ctx, 0, links); !errors.Is(err, domain.ErrLinkConflict) {
		t.Fatalf("expected ErrLinkConflict for new invoice, got %v", err)
	}

	// Unlinked voucher: fine
	free := []*domain.VoucherLink{{VoucherID: 9, Amount: 5}}
	if err := r.CheckExclusive(ctx, 0, free); err != nil {
		t.Fatalf("unexpected error for free voucher: %v", err)
	}
}
