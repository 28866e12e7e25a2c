package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bobzap/batisync/internal/domain"
)

func newTestVoucherService(vRepo *mockVoucherRepo) *voucherService {
	return &voucherService{
		voucherRepo: vRepo,
		projectRepo: &mockProjectRepo{},
		log:         zerolog.Nop(),
	}
}

func TestImportVouchers(t *testing.T) {
	ctx := context.Background()
	vRepo := &mockVoucherRepo{}
	svc := newTestVoucherService(vRepo)

	input := strings.Join([]string{
		"type,supplier,date,quantity,unit,unit_price,materials,concrete_grade,load_location,unload_location",
		"concrete,Béton SA,05/03/2026,12.5,m3,185.00,,C25/30,,",
		"delivery,Transport SA,06/03/2026,2,pcs,,,,Dépôt Est,Chantier Nord",
	}, "\n")

	count, err := svc.Import(ctx, 1, strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 imported, got %d", count)
	}

	first := vRepo.inserted[0]
	if first.Type != domain.VoucherTypeConcrete {
		t.Fatalf("expected concrete voucher, got %s", first.Type)
	}
	if first.Quantity != 12.5 || first.UnitPrice == nil || *first.UnitPrice != 185 {
		t.Fatalf("quantity/price mismatch: %v %v", first.Quantity, first.UnitPrice)
	}
	if first.ConcreteGrade != "C25/30" {
		t.Fatalf("expected grade C25/30, got %q", first.ConcreteGrade)
	}
	if first.Date.Day() != 5 || first.Date.Month() != 3 {
		t.Fatalf("date parsed wrong: %v", first.Date)
	}

	// Missing price stays nil, not zero
	second := vRepo.inserted[1]
	if second.UnitPrice != nil {
		t.Fatalf("expected nil price, got %v", *second.UnitPrice)
	}
}

func TestImportRejectsBadHeader(t *testing.T) {
	ctx := context.Background()
	svc := newTestVoucherService(&mockVoucherRepo{})

	input := "kind,supplier,date,quantity,unit,unit_price,materials,concrete_grade,load_location,unload_location\n"

	_, err := svc.Import(ctx, 1, strings.NewReader(input))
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestImportStopsOnBadRow(t *testing.T) {
	ctx := context.Background()
	vRepo := &mockVoucherRepo{}
	svc := newTestVoucherService(vRepo)

	input := strings.Join([]string{
		"type,supplier,date,quantity,unit,unit_price,materials,concrete_grade,load_location,unload_location",
		"concrete,Béton SA,05/03/2026,12.5,m3,185.00,,C25/30,,",
		"concrete,Béton SA,not-a-date,1,m3,,,,,",
	}, "\n")

	count, err := svc.Import(ctx, 1, strings.NewReader(input))
	if err == nil {
		t.Fatal("expected error for bad date")
	}
	if count != 1 {
		t.Fatalf("expected 1 row imported before the failure, got %d", count)
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("error should name the failing line, got: %v", err)
	}
}

func TestImportRejectsInvalidType(t *testing.T) {
	ctx := context.Background()
	svc := newTestVoucherService(&mockVoucherRepo{})

	input := strings.Join([]string{
		"type,supplier,date,quantity,unit,unit_price,materials,concrete_grade,load_location,unload_location",
		"plumbing,Sanitaire SA,05/03/2026,1,pcs,,,,,",
	}, "\n")

	if _, err := svc.Import(ctx, 1, strings.NewReader(input)); err == nil {
		t.Fatal("expected error for unknown voucher type")
	}
}
