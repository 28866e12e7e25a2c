package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bobzap/batisync/internal/db"
	"github.com/bobzap/batisync/internal/domain"
)

// VoucherRepo is a SQLite implementation of VoucherRepository
type VoucherRepo struct {
	db *db.DB
}

// NewVoucherRepo creates a new VoucherRepo
func NewVoucherRepo(database *db.DB) *VoucherRepo {
	return &VoucherRepo{db: database}
}

const voucherColumns = `
	v.id, v.project_id, v.type, v.supplier, v.date,
	v.quantity, v.unit, v.unit_price,
	v.materials, v.concrete_grade, v.load_location, v.unload_location,
	v.status, v.created_at, l.invoice_id
`

// Insert adds a voucher to the ledger (daily report import path)
func (r *VoucherRepo) Insert(ctx context.Context, voucher *domain.Voucher) error {
	if err := voucher.Validate(); err != nil {
		return fmt.Errorf("invalid voucher: %w", err)
	}

	query := `
		INSERT INTO vouchers (
			project_id, type, supplier, date, quantity, unit, unit_price,
			materials, concrete_grade, load_location, unload_location,
			status, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var unitPrice interface{}
	if voucher.UnitPrice != nil {
		unitPrice = *voucher.UnitPrice
	}

	result, err := r.db.ExecContext(ctx, query,
		voucher.ProjectID,
		string(voucher.Type),
		voucher.Supplier,
		voucher.Date.Format(timeLayout),
		voucher.Quantity,
		voucher.Unit,
		unitPrice,
		voucher.Materials,
		voucher.ConcreteGrade,
		voucher.LoadLocation,
		voucher.UnloadLocation,
		voucher.Status,
		voucher.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert voucher: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get voucher ID: %w", err)
	}

	voucher.ID = id
	return nil
}

// GetByID retrieves a voucher by ID, with its link state
func (r *VoucherRepo) GetByID(ctx context.Context, id int64) (*domain.Voucher, error) {
	query := `
		SELECT ` + voucherColumns + `
		FROM vouchers v
		LEFT JOIN voucher_invoice_links l ON l.voucher_id = v.id
		WHERE v.id = ?
	`

	voucher, err := scanVoucher(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("voucher %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get voucher: %w", err)
	}

	return voucher, nil
}

// List retrieves vouchers for a project with optional filters
func (r *VoucherRepo) List(ctx context.Context, projectID int64, filters VoucherFilters) ([]*domain.Voucher, error) {
	return r.list(ctx, projectID, filters, false)
}

// ListAvailable retrieves vouchers holding no active invoice link
func (r *VoucherRepo) ListAvailable(ctx context.Context, projectID int64, filters VoucherFilters) ([]*domain.Voucher, error) {
	return r.list(ctx, projectID, filters, true)
}

func (r *VoucherRepo) list(ctx context.Context, projectID int64, filters VoucherFilters, onlyAvailable bool) ([]*domain.Voucher, error) {
	query := `
		SELECT ` + voucherColumns + `
		FROM vouchers v
		LEFT JOIN voucher_invoice_links l ON l.voucher_id = v.id
		WHERE v.project_id = ?
	`
	args := []interface{}{projectID}

	if onlyAvailable {
		query += " AND l.id IS NULL"
	}
	if filters.StartDate != nil {
		query += " AND v.date >= ?"
		args = append(args, filters.StartDate.Format(timeLayout))
	}
	if filters.EndDate != nil {
		query += " AND v.date <= ?"
		args = append(args, filters.EndDate.Format(timeLayout))
	}
	if filters.Type != nil {
		query += " AND v.type = ?"
		args = append(args, string(*filters.Type))
	}
	if filters.Status != "" {
		query += " AND v.status = ?"
		args = append(args, filters.Status)
	}
	if filters.Supplier != "" {
		query += " AND v.supplier = ?"
		args = append(args, filters.Supplier)
	}

	query += " ORDER BY v.date, v.id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list vouchers: %w", err)
	}
	defer rows.Close()

	vouchers := make([]*domain.Voucher, 0)
	for rows.Next() {
		voucher, err := scanVoucher(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voucher: %w", err)
		}
		vouchers = append(vouchers, voucher)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vouchers: %w", err)
	}

	return vouchers, nil
}

// ActiveLink returns the persisted link holding the voucher, or nil
func (r *VoucherRepo) ActiveLink(ctx context.Context, voucherID int64) (*domain.VoucherLink, error) {
	query := `
		SELECT id, invoice_id, voucher_id, amount, created_at
		FROM voucher_invoice_links
		WHERE voucher_id = ?
	`

	link := &domain.VoucherLink{}
	var createdAt string

	err := r.db.QueryRowContext(ctx, query, voucherID).Scan(
		&link.ID,
		&link.InvoiceID,
		&link.VoucherID,
		&link.Amount,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active link: %w", err)
	}

	if link.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return link, nil
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanVoucher(row scanner) (*domain.Voucher, error) {
	voucher := &domain.Voucher{}
	var typ, date, createdAt string
	var unit, materials, grade, loadLoc, unloadLoc, status sql.NullString
	var unitPrice sql.NullFloat64
	var invoiceID sql.NullInt64

	err := row.Scan(
		&voucher.ID,
		&voucher.ProjectID,
		&typ,
		&voucher.Supplier,
		&date,
		&voucher.Quantity,
		&unit,
		&unitPrice,
		&materials,
		&grade,
		&loadLoc,
		&unloadLoc,
		&status,
		&createdAt,
		&invoiceID,
	)
	if err != nil {
		return nil, err
	}

	voucher.Type = domain.VoucherType(typ)
	voucher.Unit = unit.String
	voucher.Materials = materials.String
	voucher.ConcreteGrade = grade.String
	voucher.LoadLocation = loadLoc.String
	voucher.UnloadLocation = unloadLoc.String
	voucher.Status = status.String

	if unitPrice.Valid {
		p := unitPrice.Float64
		voucher.UnitPrice = &p
	}
	if invoiceID.Valid {
		id := invoiceID.Int64
		voucher.InvoiceID = &id
	}

	if voucher.Date, err = parseTime(date); err != nil {
		return nil, fmt.Errorf("failed to parse date: %w", err)
	}
	if voucher.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return voucher, nil
}
