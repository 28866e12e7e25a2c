package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bobzap/batisync/internal/db"
	"github.com/bobzap/batisync/internal/domain"
)

// InvoiceRepo is a SQLite implementation of InvoiceRepository
type InvoiceRepo struct {
	db *db.DB
}

// NewInvoiceRepo creates a new InvoiceRepo
func NewInvoiceRepo(database *db.DB) *InvoiceRepo {
	return &InvoiceRepo{db: database}
}

const invoiceColumns = `
	id, project_id, number, reference, supplier, date, due_date,
	amount_ht, vat_rate, amount_ttc, status,
	payment_date, payment_reference, created_by, created_at, updated_at
`

// Save upserts the invoice row, replaces its link set, and reconciles its
// document rows. The three steps run in one transaction so a failure in
// any step leaves the persisted state untouched; the wrapped step name
// tells the caller which step refused the write.
func (r *InvoiceRepo) Save(ctx context.Context, invoice *domain.Invoice) error {
	if err := invoice.Validate(); err != nil {
		return fmt.Errorf("invalid invoice: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Step 1: invoice row
	if err := r.saveRow(ctx, tx, invoice); err != nil {
		return fmt.Errorf("invoice row: %w", err)
	}

	// Step 2: link rows (full replace with the resolver's output)
	if err := r.replaceLinks(ctx, tx, invoice); err != nil {
		return fmt.Errorf("link rows: %w", err)
	}

	// Step 3: document rows (keep surviving, drop removed, add new)
	if err := r.reconcileDocuments(ctx, tx, invoice); err != nil {
		return fmt.Errorf("document rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit invoice save: %w", err)
	}

	return nil
}

func (r *InvoiceRepo) saveRow(ctx context.Context, tx *sql.Tx, invoice *domain.Invoice) error {
	if invoice.ID == 0 {
		query := `
			INSERT INTO invoices (
				project_id, number, reference, supplier, date, due_date,
				amount_ht, vat_rate, amount_ttc, status,
				payment_date, payment_reference, created_by, created_at, updated_at
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`

		result, err := tx.ExecContext(ctx, query,
			invoice.ProjectID,
			invoice.Number,
			invoice.Reference,
			invoice.Supplier,
			invoice.Date.Format(timeLayout),
			invoice.DueDate.Format(timeLayout),
			invoice.AmountHT,
			invoice.VATRate,
			invoice.AmountTTC,
			string(invoice.Status),
			nullTimeStr(invoice.PaymentDate),
			invoice.PaymentReference,
			invoice.CreatedBy,
			invoice.CreatedAt.Format(timeLayout),
			invoice.UpdatedAt.Format(timeLayout),
		)
		if err != nil {
			return mapConstraintErr(err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get invoice ID: %w", err)
		}
		invoice.ID = id
		return nil
	}

	invoice.UpdatedAt = time.Now()

	query := `
		UPDATE invoices
		SET number = ?, reference = ?, supplier = ?, date = ?, due_date = ?,
		    amount_ht = ?, vat_rate = ?, amount_ttc = ?, status = ?,
		    payment_date = ?, payment_reference = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := tx.ExecContext(ctx, query,
		invoice.Number,
		invoice.Reference,
		invoice.Supplier,
		invoice.Date.Format(timeLayout),
		invoice.DueDate.Format(timeLayout),
		invoice.AmountHT,
		invoice.VATRate,
		invoice.AmountTTC,
		string(invoice.Status),
		nullTimeStr(invoice.PaymentDate),
		invoice.PaymentReference,
		invoice.UpdatedAt.Format(timeLayout),
		invoice.ID,
	)
	if err != nil {
		return mapConstraintErr(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("invoice %d: %w", invoice.ID, domain.ErrNotFound)
	}

	return nil
}

func (r *InvoiceRepo) replaceLinks(ctx context.Context, tx *sql.Tx, invoice *domain.Invoice) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM voucher_invoice_links WHERE invoice_id = ?", invoice.ID,
	); err != nil {
		return fmt.Errorf("failed to clear links: %w", err)
	}

	for _, link := range invoice.Links {
		createdAt := link.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}

		// The unique constraint on voucher_id rejects a voucher attached
		// to another invoice concurrently; surfaced as ErrLinkConflict.
		result, err := tx.ExecContext(ctx, `
			INSERT INTO voucher_invoice_links (invoice_id, voucher_id, amount, created_at)
			VALUES (?, ?, ?, ?)
		`,
			invoice.ID,
			link.VoucherID,
			link.Amount,
			createdAt.Format(timeLayout),
		)
		if err != nil {
			return mapConstraintErr(err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get link ID: %w", err)
		}
		link.ID = id
		link.InvoiceID = invoice.ID
	}

	return nil
}

func (r *InvoiceRepo) reconcileDocuments(ctx context.Context, tx *sql.Tx, invoice *domain.Invoice) error {
	// Drop rows no longer present in the document set
	keptIDs := make([]string, 0, len(invoice.Documents))
	args := []interface{}{invoice.ID}
	for _, doc := range invoice.Documents {
		if doc.ID != 0 {
			keptIDs = append(keptIDs, "?")
			args = append(args, doc.ID)
		}
	}

	query := "DELETE FROM invoice_documents WHERE invoice_id = ?"
	if len(keptIDs) > 0 {
		query += " AND id NOT IN (" + strings.Join(keptIDs, ", ") + ")"
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to drop removed documents: %w", err)
	}

	// Insert new documents
	for _, doc := range invoice.Documents {
		if doc.ID != 0 {
			continue
		}

		uploadedAt := doc.UploadedAt
		if uploadedAt.IsZero() {
			uploadedAt = time.Now()
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO invoice_documents (invoice_id, name, media_type, locator, uploaded_at)
			VALUES (?, ?, ?, ?, ?)
		`,
			invoice.ID,
			doc.Name,
			doc.MediaType,
			doc.Locator,
			uploadedAt.Format(timeLayout),
		)
		if err != nil {
			return fmt.Errorf("failed to add document: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get document ID: %w", err)
		}
		doc.ID = id
		doc.InvoiceID = invoice.ID
	}

	return nil
}

// GetByID retrieves an invoice with its links and documents
func (r *InvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ?`

	invoice, err := scanInvoice(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invoice %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	if invoice.Links, err = r.GetLinks(ctx, invoice.ID); err != nil {
		return nil, err
	}
	if invoice.Documents, err = r.GetDocuments(ctx, invoice.ID); err != nil {
		return nil, err
	}

	return invoice, nil
}

// GetByNumber retrieves an invoice row by its number within a project.
// Links and documents are not loaded; this is the uniqueness-check path.
func (r *InvoiceRepo) GetByNumber(ctx context.Context, projectID int64, number string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE project_id = ? AND number = ?`

	invoice, err := scanInvoice(r.db.QueryRowContext(ctx, query, projectID, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invoice %q: %w", number, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	return invoice, nil
}

// List retrieves invoices for a project with optional filters
func (r *InvoiceRepo) List(ctx context.Context, projectID int64, filters InvoiceFilters) ([]*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE project_id = ?`
	args := []interface{}{projectID}

	if filters.StartDate != nil {
		query += " AND date >= ?"
		args = append(args, filters.StartDate.Format(timeLayout))
	}
	if filters.EndDate != nil {
		query += " AND date <= ?"
		args = append(args, filters.EndDate.Format(timeLayout))
	}
	if filters.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*filters.Status))
	}
	if filters.Supplier != "" {
		query += " AND supplier = ?"
		args = append(args, filters.Supplier)
	}
	if filters.IsPaid != nil {
		if *filters.IsPaid {
			query += " AND payment_date IS NOT NULL"
		} else {
			query += " AND payment_date IS NULL"
		}
	}

	query += " ORDER BY date DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]*domain.Invoice, 0)
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}

	// Overdue is derived from the reference instant, not stored,
	// so it cannot be pushed into SQL.
	if filters.IsOverdue != nil {
		now := filters.Now
		if now.IsZero() {
			now = time.Now()
		}
		filtered := invoices[:0]
		for _, invoice := range invoices {
			if invoice.IsOverdue(now) == *filters.IsOverdue {
				filtered = append(filtered, invoice)
			}
		}
		invoices = filtered
	}

	return invoices, nil
}

// Delete removes the invoice together with its links and document rows.
// Returns the storage locators of the removed documents.
func (r *InvoiceRepo) Delete(ctx context.Context, id int64) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Collect locators before the rows go
	rows, err := tx.QueryContext(ctx,
		"SELECT locator FROM invoice_documents WHERE invoice_id = ?", id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to collect document locators: %w", err)
	}

	locators := make([]string, 0)
	for rows.Next() {
		var locator string
		if err := rows.Scan(&locator); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan locator: %w", err)
		}
		locators = append(locators, locator)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating locators: %w", err)
	}
	rows.Close()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM invoice_documents WHERE invoice_id = ?", id,
	); err != nil {
		return nil, fmt.Errorf("failed to delete documents: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM voucher_invoice_links WHERE invoice_id = ?", id,
	); err != nil {
		return nil, fmt.Errorf("failed to delete links: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM invoices WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete invoice: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("invoice %d: %w", id, domain.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit invoice delete: %w", err)
	}

	return locators, nil
}

// GetLinks retrieves the link set of an invoice
func (r *InvoiceRepo) GetLinks(ctx context.Context, invoiceID int64) ([]*domain.VoucherLink, error) {
	query := `
		SELECT id, invoice_id, voucher_id, amount, created_at
		FROM voucher_invoice_links
		WHERE invoice_id = ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get links: %w", err)
	}
	defer rows.Close()

	links := make([]*domain.VoucherLink, 0)
	for rows.Next() {
		link := &domain.VoucherLink{}
		var createdAt string

		err := rows.Scan(&link.ID, &link.InvoiceID, &link.VoucherID, &link.Amount, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}

		if link.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	return links, nil
}

// GetDocuments retrieves the document set of an invoice
func (r *InvoiceRepo) GetDocuments(ctx context.Context, invoiceID int64) ([]*domain.Document, error) {
	query := `
		SELECT id, invoice_id, name, media_type, locator, uploaded_at
		FROM invoice_documents
		WHERE invoice_id = ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents: %w", err)
	}
	defer rows.Close()

	documents := make([]*domain.Document, 0)
	for rows.Next() {
		doc := &domain.Document{}
		var mediaType sql.NullString
		var uploadedAt string

		err := rows.Scan(&doc.ID, &doc.InvoiceID, &doc.Name, &mediaType, &doc.Locator, &uploadedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}

		doc.MediaType = mediaType.String
		if doc.UploadedAt, err = parseTime(uploadedAt); err != nil {
			return nil, fmt.Errorf("failed to parse uploaded_at: %w", err)
		}

		documents = append(documents, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return documents, nil
}

func scanInvoice(row scanner) (*domain.Invoice, error) {
	invoice := &domain.Invoice{}
	var status, date, dueDate, createdAt, updatedAt string
	var reference, paymentRef, createdBy sql.NullString
	var paymentDate sql.NullString

	err := row.Scan(
		&invoice.ID,
		&invoice.ProjectID,
		&invoice.Number,
		&reference,
		&invoice.Supplier,
		&date,
		&dueDate,
		&invoice.AmountHT,
		&invoice.VATRate,
		&invoice.AmountTTC,
		&status,
		&paymentDate,
		&paymentRef,
		&createdBy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	invoice.Reference = reference.String
	invoice.PaymentReference = paymentRef.String
	invoice.CreatedBy = createdBy.String
	invoice.Status = domain.InvoiceStatus(status)

	if invoice.Date, err = parseTime(date); err != nil {
		return nil, fmt.Errorf("failed to parse date: %w", err)
	}
	if invoice.DueDate, err = parseTime(dueDate); err != nil {
		return nil, fmt.Errorf("failed to parse due_date: %w", err)
	}
	if invoice.PaymentDate, err = parseNullTime(paymentDate); err != nil {
		return nil, fmt.Errorf("failed to parse payment_date: %w", err)
	}
	if invoice.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if invoice.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return invoice, nil
}
