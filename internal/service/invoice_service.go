package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/bobzap/batisync/internal/domain"
	"github.com/bobzap/batisync/internal/logger"
	"github.com/bobzap/batisync/internal/repository"
	"github.com/bobzap/batisync/internal/storage"
)

// IdentityProvider supplies the acting user for audit fields
type IdentityProvider interface {
	CurrentActor() string
}

// InvoiceService manages the invoice lifecycle: upsert with link and
// document reconciliation, link management through the resolver, and
// deletion with cascade.
type InvoiceService interface {
	// Save validates and upserts a draft. Returns the persisted invoice
	// with links and documents reloaded. Fails with a ValidationError,
	// ErrDuplicateNumber, ErrLinkConflict, or ErrStorage.
	Save(ctx context.Context, draft *domain.Invoice) (*domain.Invoice, error)

	// Get retrieves an invoice with links and documents
	Get(ctx context.Context, id int64) (*domain.Invoice, error)

	// List retrieves invoices for a project with optional filters
	List(ctx context.Context, projectID int64, filters repository.InvoiceFilters) ([]*domain.Invoice, error)

	// Delete removes an invoice with its links and documents; stored
	// document files are cleaned up best-effort
	Delete(ctx context.Context, id int64) error

	// LinkVouchers attaches the given vouchers to the invoice and saves
	LinkVouchers(ctx context.Context, invoiceID int64, voucherIDs []int64) (*domain.Invoice, error)

	// UnlinkVoucher detaches a voucher from the invoice and saves,
	// making the voucher available again
	UnlinkVoucher(ctx context.Context, invoiceID, voucherID int64) (*domain.Invoice, error)

	// SetStatus reclassifies the invoice; all transitions are permitted
	SetStatus(ctx context.Context, invoiceID int64, status domain.InvoiceStatus) error

	// MarkPaid records a payment date and optional payment reference
	MarkPaid(ctx context.Context, invoiceID int64, paymentDate time.Time, reference string) error

	// AttachDocument stores a local file and adds it to the invoice
	AttachDocument(ctx context.Context, invoiceID int64, filePath string) (*domain.Document, error)

	// RemoveDocument drops a document from the invoice and deletes the
	// stored file best-effort
	RemoveDocument(ctx context.Context, invoiceID, documentID int64) error
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	voucherRepo repository.VoucherRepository
	projectRepo repository.ProjectRepository
	resolver    *LinkResolver
	docs        storage.DocumentStore
	identity    IdentityProvider
	log         zerolog.Logger
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	voucherRepo repository.VoucherRepository,
	projectRepo repository.ProjectRepository,
	resolver *LinkResolver,
	docs storage.DocumentStore,
	identity IdentityProvider,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		voucherRepo: voucherRepo,
		projectRepo: projectRepo,
		resolver:    resolver,
		docs:        docs,
		identity:    identity,
		log:         logger.WithComponent("invoice"),
	}
}

func (s *invoiceService) Save(ctx context.Context, draft *domain.Invoice) (*domain.Invoice, error) {
	if draft.Status == "" {
		draft.Status = domain.InvoiceStatusDraft
	}

	// Verify the project exists
	if _, err := s.projectRepo.GetByID(ctx, draft.ProjectID); err != nil {
		return nil, err
	}

	// Auto-fill HT from the link snapshots when no amount was entered
	if draft.AmountHT == 0 && len(draft.Links) > 0 {
		draft.AmountHT = s.resolver.Total(draft.Links)
	}
	draft.ComputeTTC()

	if err := draft.Validate(); err != nil {
		return nil, err
	}

	// Number must be unique within the project, excluding self on update
	existing, err := s.invoiceRepo.GetByNumber(ctx, draft.ProjectID, draft.Number)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.ID != draft.ID {
		return nil, fmt.Errorf("number %q: %w", draft.Number, domain.ErrDuplicateNumber)
	}

	// Re-validate link exclusivity against the persisted state: a voucher
	// may have been attached elsewhere between selection and save
	if err := s.resolver.CheckExclusive(ctx, draft.ID, draft.Links); err != nil {
		return nil, err
	}

	// Collect locators of documents dropped from the set, for cleanup
	// after the rows are gone
	var removed []string
	if draft.ID != 0 {
		persisted, err := s.invoiceRepo.GetDocuments(ctx, draft.ID)
		if err != nil {
			return nil, err
		}
		kept := make(map[int64]bool, len(draft.Documents))
		for _, doc := range draft.Documents {
			if doc.ID != 0 {
				kept[doc.ID] = true
			}
		}
		for _, doc := range persisted {
			if !kept[doc.ID] {
				removed = append(removed, doc.Locator)
			}
		}
	} else {
		if draft.CreatedBy == "" && s.identity != nil {
			draft.CreatedBy = s.identity.CurrentActor()
		}
		if draft.CreatedAt.IsZero() {
			now := time.Now()
			draft.CreatedAt = now
			draft.UpdatedAt = now
		}
	}

	if err := s.invoiceRepo.Save(ctx, draft); err != nil {
		return nil, err
	}

	// Best-effort cleanup of removed document files. The metadata rows
	// are already gone; a leftover file is a warning, not a failure.
	for _, locator := range removed {
		if err := s.docs.Delete(ctx, locator); err != nil {
			s.log.Warn().Err(err).Str("locator", locator).Msg("document cleanup failed")
		}
	}

	return s.invoiceRepo.GetByID(ctx, draft.ID)
}

func (s *invoiceService) Get(ctx context.Context, id int64) (*domain.Invoice, error) {
	return s.invoiceRepo.GetByID(ctx, id)
}

func (s *invoiceService) List(ctx context.Context, projectID int64, filters repository.InvoiceFilters) ([]*domain.Invoice, error) {
	return s.invoiceRepo.List(ctx, projectID, filters)
}

func (s *invoiceService) Delete(ctx context.Context, id int64) error {
	locators, err := s.invoiceRepo.Delete(ctx, id)
	if err != nil {
		return err
	}

	for _, locator := range locators {
		if err := s.docs.Delete(ctx, locator); err != nil {
			s.log.Warn().Err(err).Str("locator", locator).Msg("document cleanup failed")
		}
	}

	return nil
}

func (s *invoiceService) LinkVouchers(ctx context.Context, invoiceID int64, voucherIDs []int64) (*domain.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	for _, voucherID := range voucherIDs {
		voucher, err := s.voucherRepo.GetByID(ctx, voucherID)
		if err != nil {
			return nil, err
		}
		if voucher.ProjectID != invoice.ProjectID {
			return nil, fmt.Errorf("voucher %d does not belong to project %d", voucherID, invoice.ProjectID)
		}
		invoice.Links = s.resolver.Attach(invoice.Links, voucher)
	}

	return s.Save(ctx, invoice)
}

func (s *invoiceService) UnlinkVoucher(ctx context.Context, invoiceID, voucherID int64) (*domain.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	invoice.Links = s.resolver.Detach(invoice.Links, voucherID)
	return s.Save(ctx, invoice)
}

func (s *invoiceService) SetStatus(ctx context.Context, invoiceID int64, status domain.InvoiceStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("unknown status %q", status)
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}

	invoice.Status = status
	_, err = s.Save(ctx, invoice)
	return err
}

func (s *invoiceService) MarkPaid(ctx context.Context, invoiceID int64, paymentDate time.Time, reference string) error {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}

	invoice.PaymentDate = &paymentDate
	invoice.PaymentReference = reference
	_, err = s.Save(ctx, invoice)
	return err
}

func (s *invoiceService) AttachDocument(ctx context.Context, invoiceID int64, filePath string) (*domain.Document, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	src, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrStorage, filePath, err)
	}
	defer src.Close()

	name := filepath.Base(filePath)

	// A storage failure on the add path is fatal for the operation
	locator, err := s.docs.Put(ctx, src, name)
	if err != nil {
		return nil, err
	}

	doc := &domain.Document{
		Name:       name,
		MediaType:  mime.TypeByExtension(filepath.Ext(name)),
		Locator:    locator,
		UploadedAt: time.Now(),
	}
	invoice.Documents = append(invoice.Documents, doc)

	if _, err := s.Save(ctx, invoice); err != nil {
		// The metadata write failed; drop the orphaned file
		if derr := s.docs.Delete(ctx, locator); derr != nil {
			s.log.Warn().Err(derr).Str("locator", locator).Msg("orphaned document cleanup failed")
		}
		return nil, err
	}

	return doc, nil
}

func (s *invoiceService) RemoveDocument(ctx context.Context, invoiceID, documentID int64) error {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}

	found := false
	docs := make([]*domain.Document, 0, len(invoice.Documents))
	for _, doc := range invoice.Documents {
		if doc.ID == documentID {
			found = true
			continue
		}
		docs = append(docs, doc)
	}
	if !found {
		return fmt.Errorf("document %d: %w", documentID, domain.ErrNotFound)
	}

	invoice.Documents = docs
	_, err = s.Save(ctx, invoice)
	return err
}
