package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bobzap/batisync/internal/domain"
	"github.com/bobzap/batisync/internal/repository"
)

// mock implementations
type mockInvoiceRepo struct {
	invoices  map[int64]*domain.Invoice
	byNumber  map[string]*domain.Invoice
	documents map[int64][]*domain.Document
	saved     *domain.Invoice
	deleted   []int64
	locators  []string
	nextID    int64
}

func (m *mockInvoiceRepo) Save(ctx context.Context, invoice *domain.Invoice) error {
	if invoice.ID == 0 {
		m.nextID++
		invoice.ID = m.nextID
	}
	if m.invoices == nil {
		m.invoices = make(map[int64]*domain.Invoice)
	}
	m.invoices[invoice.ID] = invoice
	m.saved = invoice
	return nil
}

func (m *mockInvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	if inv, ok := m.invoices[id]; ok {
		return inv, nil
	}
	return nil, fmt.Errorf("invoice %d: %w", id, domain.ErrNotFound)
}

func (m *mockInvoiceRepo) GetByNumber(ctx context.Context, projectID int64, number string) (*domain.Invoice, error) {
	if inv, ok := m.byNumber[number]; ok {
		return inv, nil
	}
	return nil, fmt.Errorf("invoice %q: %w", number, domain.ErrNotFound)
}

func (m *mockInvoiceRepo) List(ctx context.Context, projectID int64, filters repository.InvoiceFilters) ([]*domain.Invoice, error) {
	return nil, nil
}

func (m *mockInvoiceRepo) Delete(ctx context.Context, id int64) ([]string, error) {
	if _, ok := m.invoices[id]; !ok && m.invoices != nil {
		return nil, fmt.Errorf("invoice %d: %w", id, domain.ErrNotFound)
	}
	m.deleted = append(m.deleted, id)
	return m.locators, nil
}

func (m *mockInvoiceRepo) GetLinks(ctx context.Context, invoiceID int64) ([]*domain.VoucherLink, error) {
	return nil, nil
}

func (m *mockInvoiceRepo) GetDocuments(ctx context.Context, invoiceID int64) ([]*domain.Document, error) {
	return m.documents[invoiceID], nil
}

type mockVoucherRepo struct {
	vouchers map[int64]*domain.Voucher
	links    map[int64]*domain.VoucherLink // by voucher id
	inserted []*domain.Voucher
}

func (m *mockVoucherRepo) Insert(ctx context.Context, voucher *domain.Voucher) error {
	m.inserted = append(m.inserted, voucher)
	return nil
}

func (m *mockVoucherRepo) GetByID(ctx context.Context, id int64) (*domain.Voucher, error) {
	if v, ok := m.vouchers[id]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("voucher %d: %w", id, domain.ErrNotFound)
}

func (m *mockVoucherRepo) List(ctx context.Context, projectID int64, filters repository.VoucherFilters) ([]*domain.Voucher, error) {
	out := make([]*domain.Voucher, 0)
	for _, v := range m.vouchers {
		if v.ProjectID == projectID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockVoucherRepo) ListAvailable(ctx context.Context, projectID int64, filters repository.VoucherFilters) ([]*domain.Voucher, error) {
	out := make([]*domain.Voucher, 0)
	for _, v := range m.vouchers {
		if v.ProjectID == projectID {
			if _, linked := m.links[v.ID]; !linked {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

func (m *mockVoucherRepo) ActiveLink(ctx context.Context, voucherID int64) (*domain.VoucherLink, error) {
	if link, ok := m.links[voucherID]; ok {
		return link, nil
	}
	return nil, nil
}

type mockProjectRepo struct{}

func (m *mockProjectRepo) Create(ctx context.Context, project *domain.Project) error { return nil }
func (m *mockProjectRepo) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	return &domain.Project{ID: id, Name: "Chantier Nord"}, nil
}
func (m *mockProjectRepo) GetByName(ctx context.Context, name string) (*domain.Project, error) {
	return &domain.Project{ID: 1, Name: name}, nil
}
func (m *mockProjectRepo) List(ctx context.Context, includeArchived bool) ([]*domain.Project, error) {
	return nil, nil
}
func (m *mockProjectRepo) Update(ctx context.Context, project *domain.Project) error { return nil }
func (m *mockProjectRepo) Archive(ctx context.Context, id int64) error               { return nil }

type mockDocStore struct {
	stored  map[string][]byte
	deleted []string
	putErr  error
}

func (m *mockDocStore) Put(ctx context.Context, src io.Reader, nameHint string) (string, error) {
	if m.putErr != nil {
		return "", m.putErr
	}
	data, _ := io.ReadAll(src)
	if m.stored == nil {
		m.stored = make(map[string][]byte)
	}
	locator := "stored-" + nameHint
	m.stored[locator] = data
	return locator, nil
}

func (m *mockDocStore) Delete(ctx context.Context, locator string) error {
	m.deleted = append(m.deleted, locator)
	delete(m.stored, locator)
	return nil
}

func (m *mockDocStore) Path(locator string) string { return "/tmp/" + locator }

type staticIdentity string

func (s staticIdentity) CurrentActor() string { return string(s) }

func newTestService(invRepo *mockInvoiceRepo, vRepo *mockVoucherRepo, docs *mockDocStore) *invoiceService {
	return &invoiceService{
		invoiceRepo: invRepo,
		voucherRepo: vRepo,
		projectRepo: &mockProjectRepo{},
		resolver:    NewLinkResolver(vRepo),
		docs:        docs,
		identity:    staticIdentity("jdupont"),
		log:         zerolog.Nop(),
	}
}

func testDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSaveComputesTTCAndSetsCreator(t *testing.T) {
	ctx := context.Background()
	invRepo := &mockInvoiceRepo{}
	svc := newTestService(invRepo, &mockVoucherRepo{}, &mockDocStore{})

	draft := domain.NewInvoice(1, "F-001", "Béton SA", testDate(2026, 3, 1), testDate(2026, 3, 31))
	draft.AmountHT = 1000
	draft.VATRate = 7.7

	saved, err := svc.Save(ctx, draft)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if saved.AmountTTC != 1077.00 {
		t.Fatalf("expected TTC 1077.00, got %v", saved.AmountTTC)
	}
	if saved.CreatedBy != "jdupont" {
		t.Fatalf("expected creator jdupont, got %q", saved.CreatedBy)
	}
}

func TestSaveRejectsDuplicateNumber(t *testing.T) {
	ctx := context.Background()

	existing := domain.NewInvoice(1, "F-001", "Béton SA", testDate(2026, 3, 1), testDate(2026, 3, 31))
	existing.ID = 5

	invRepo := &mockInvoiceRepo{
		byNumber: map[string]*domain.Invoice{"F-001": existing},
	}
	svc := newTestService(invRepo, &mockVoucherRepo{}, &mockDocStore{})

	draft := domain.NewInvoice(1, "F-001", "Gravier Sàrl", testDate(2026, 4, 1), testDate(2026, 4, 30))
	draft.AmountHT = 100

	if _, err := svc.Save(ctx, draft); !errors.Is(err, domain.ErrDuplicateNumber) {
		t.Fatalf("expected ErrDuplicateNumber, got %v", err)
	}
}

func TestSaveAllowsOwnNumberOnUpdate(t *testing.T) {
	ctx := context.Background()

	existing := domain.NewInvoice(1, "F-001", "Béton SA", testDate(2026, 3, 1), testDate(2026, 3, 31))
	existing.ID = 5
	existing.AmountHT = 100

	invRepo := &mockInvoiceRepo{
		invoices: map[int64]*domain.Invoice{5: existing},
		byNumber: map[string]*domain.Invoice{"F-001": existing},
	}
	svc := newTestService(invRepo, &mockVoucherRepo{}, &mockDocStore{})

	if _, err := svc.Save(ctx, existing); err != nil {
		t.Fatalf("updating an invoice under its own number must succeed: %v", err)
	}
}

func TestSaveRejectsLinkConflict(t *testing.T) {
	ctx := context.Background()

	price := 10.0
	voucher := &domain.Voucher{ID: 3, ProjectID: 1, Type: domain.VoucherTypeConcrete,
		Supplier: "Béton SA", Date: testDate(2026, 2, 1), Quantity: 2, UnitPrice: &price}

	vRepo := &mockVoucherRepo{
		vouchers: map[int64]*domain.Voucher{3: voucher},
		links: map[int64]*domain.VoucherLink{
			3: {ID: 1, InvoiceID: 99, VoucherID: 3, Amount: 20},
		},
	}
	svc := newTestService(&mockInvoiceRepo{}, vRepo, &mockDocStore{})

	draft := domain.NewInvoice(1, "F-002", "Béton SA", testDate(2026, 3, 1), testDate(2026, 3, 31))
	draft.AmountHT = 100
	draft.Links = svc.resolver.Attach(draft.Links, voucher)

	if _, err := svc.Save(ctx, draft); !errors.Is(err, domain.ErrLinkConflict) {
		t.Fatalf("expected ErrLinkConflict, got %v", err)
	}
}

func TestSaveDerivesAmountFromLinks(t *testing.T) {
	ctx := context.Background()

	p1, p2 := 100.0, 23.46
	v1 := &domain.Voucher{ID: 1, ProjectID: 1, Type: domain.VoucherTypeDelivery,
		Supplier: "Transport SA", Date: testDate(2026, 2, 1), Quantity: 2, UnitPrice: &p1}
	v2 := &domain.Voucher{ID: 2, ProjectID: 1, Type: domain.VoucherTypeDelivery,
		Supplier: "Transport SA", Date: testDate(2026, 2, 2), Quantity: 1, UnitPrice: &p2}

	vRepo := &mockVoucherRepo{vouchers: map[int64]*domain.Voucher{1: v1, 2: v2}}
	svc := newTestService(&mockInvoiceRepo{}, vRepo, &mockDocStore{})

	draft := domain.NewInvoice(1, "F-003", "Transport SA", testDate(2026, 3, 1), testDate(2026, 3, 31))
	draft.Links = svc.resolver.Attach(draft.Links, v1)
	draft.Links = svc.resolver.Attach(draft.Links, v2)

	saved, err := svc.Save(ctx, draft)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if saved.AmountHT != 223.46 {
		t.Fatalf("expected derived HT 223.46, got %v", saved.AmountHT)
	}
}

func TestDeleteCleansUpDocuments(t *testing.T) {
	ctx := context.Background()

	invRepo := &mockInvoiceRepo{
		invoices: map[int64]*domain.Invoice{7: {ID: 7}},
		locators: []string{"a.pdf", "b.pdf"},
	}
	docs := &mockDocStore{}
	svc := newTestService(invRepo, &mockVoucherRepo{}, docs)

	if err := svc.Delete(ctx, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(docs.deleted) != 2 {
		t.Fatalf("expected 2 stored files deleted, got %d", len(docs.deleted))
	}
}

func TestLinkVouchersRejectsForeignProject(t *testing.T) {
	ctx := context.Background()

	voucher := &domain.Voucher{ID: 4, ProjectID: 2, Type: domain.VoucherTypeMaterials,
		Supplier: "Gravier Sàrl", Date: testDate(2026, 2, 1), Quantity: 1}

	invoice := domain.NewInvoice(1, "F-004", "Gravier Sàrl", testDate(2026, 3, 1), testDate(2026, 3, 31))
	invoice.ID = 9
	invoice.AmountHT = 50

	invRepo := &mockInvoiceRepo{invoices: map[int64]*domain.Invoice{9: invoice}}
	vRepo := &mockVoucherRepo{vouchers: map[int64]*domain.Voucher{4: voucher}}
	svc := newTestService(invRepo, vRepo, &mockDocStore{})

	if _, err := svc.LinkVouchers(ctx, 9, []int64{4}); err == nil {
		t.Fatal("expected error linking a voucher from another project")
	}
}
