package repository

import (
	"context"
	"time"

	"github.com/bobzap/batisync/internal/domain"
)

// VoucherFilters narrows voucher queries; nil/empty fields are no-ops
type VoucherFilters struct {
	StartDate *time.Time
	EndDate   *time.Time
	Type      *domain.VoucherType
	Status    string
	Supplier  string
}

// InvoiceFilters narrows invoice queries; nil/empty fields are no-ops.
// IsOverdue is evaluated against Now at query time, never stored;
// a zero Now means time.Now().
type InvoiceFilters struct {
	StartDate *time.Time
	EndDate   *time.Time
	Status    *domain.InvoiceStatus
	Supplier  string
	IsPaid    *bool
	IsOverdue *bool
	Now       time.Time
}

// ProjectRepository manages project persistence
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id int64) (*domain.Project, error)
	GetByName(ctx context.Context, name string) (*domain.Project, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Project, error)
	Update(ctx context.Context, project *domain.Project) error
	Archive(ctx context.Context, id int64) error
}

// VoucherRepository is the ledger of site activity vouchers. Vouchers are
// written once at import and read-only afterwards; their link state lives
// in voucher_invoice_links and is managed by the invoice repository.
type VoucherRepository interface {
	Insert(ctx context.Context, voucher *domain.Voucher) error
	GetByID(ctx context.Context, id int64) (*domain.Voucher, error)
	List(ctx context.Context, projectID int64, filters VoucherFilters) ([]*domain.Voucher, error)
	// ListAvailable returns vouchers holding no active link
	ListAvailable(ctx context.Context, projectID int64, filters VoucherFilters) ([]*domain.Voucher, error)
	// ActiveLink returns the persisted link holding the voucher, or nil
	ActiveLink(ctx context.Context, voucherID int64) (*domain.VoucherLink, error)
}

// InvoiceRepository manages invoice persistence together with the
// dependent link and document rows
type InvoiceRepository interface {
	// Save upserts the invoice row, replaces its link set, and reconciles
	// its document rows in a single transaction. Constraint violations map
	// to domain.ErrDuplicateNumber and domain.ErrLinkConflict.
	Save(ctx context.Context, invoice *domain.Invoice) error
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
	GetByNumber(ctx context.Context, projectID int64, number string) (*domain.Invoice, error)
	List(ctx context.Context, projectID int64, filters InvoiceFilters) ([]*domain.Invoice, error)
	// Delete removes the invoice with its links and document rows and
	// returns the storage locators of the removed documents so the caller
	// can clean up the stored files.
	Delete(ctx context.Context, id int64) ([]string, error)
	GetLinks(ctx context.Context, invoiceID int64) ([]*domain.VoucherLink, error)
	GetDocuments(ctx context.Context, invoiceID int64) ([]*domain.Document, error)
}
