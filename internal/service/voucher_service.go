package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bobzap/batisync/internal/domain"
	"github.com/bobzap/batisync/internal/logger"
	"github.com/bobzap/batisync/internal/repository"
)

// VoucherService exposes the read side of the voucher ledger plus the
// CSV intake. Vouchers are never edited through the engine; they enter
// through import and change only by being linked or unlinked.
type VoucherService interface {
	// Get retrieves a single voucher
	Get(ctx context.Context, id int64) (*domain.Voucher, error)

	// List retrieves vouchers for a project with optional filters
	List(ctx context.Context, projectID int64, filters repository.VoucherFilters) ([]*domain.Voucher, error)

	// ListAvailable retrieves vouchers with no active invoice link
	ListAvailable(ctx context.Context, projectID int64, filters repository.VoucherFilters) ([]*domain.Voucher, error)

	// Import reads voucher rows from CSV and inserts them. Returns the
	// number of imported rows; a bad row aborts the import with a
	// ValidationError naming the line.
	Import(ctx context.Context, projectID int64, src io.Reader) (int, error)
}

type voucherService struct {
	voucherRepo repository.VoucherRepository
	projectRepo repository.ProjectRepository
	log         zerolog.Logger
}

// NewVoucherService creates a new voucher service
func NewVoucherService(voucherRepo repository.VoucherRepository, projectRepo repository.ProjectRepository) VoucherService {
	return &voucherService{
		voucherRepo: voucherRepo,
		projectRepo: projectRepo,
		log:         logger.WithComponent("voucher"),
	}
}

func (s *voucherService) Get(ctx context.Context, id int64) (*domain.Voucher, error) {
	return s.voucherRepo.GetByID(ctx, id)
}

func (s *voucherService) List(ctx context.Context, projectID int64, filters repository.VoucherFilters) ([]*domain.Voucher, error) {
	return s.voucherRepo.List(ctx, projectID, filters)
}

func (s *voucherService) ListAvailable(ctx context.Context, projectID int64, filters repository.VoucherFilters) ([]*domain.Voucher, error) {
	return s.voucherRepo.ListAvailable(ctx, projectID, filters)
}

// importHeader is the expected CSV column order for voucher intake
var importHeader = []string{
	"type", "supplier", "date", "quantity", "unit", "unit_price",
	"materials", "concrete_grade", "load_location", "unload_location",
}

func (s *voucherService) Import(ctx context.Context, projectID int64, src io.Reader) (int, error) {
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return 0, err
	}

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = len(importHeader)

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	for i, want := range importHeader {
		if strings.TrimSpace(strings.ToLower(header[i])) != want {
			verr := domain.NewValidationError()
			verr.Add("header", fmt.Sprintf("column %d must be %q, got %q", i+1, want, header[i]))
			return 0, verr
		}
	}

	imported := 0
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}

		voucher, err := parseVoucherRecord(projectID, record)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if err := voucher.Validate(); err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if err := s.voucherRepo.Insert(ctx, voucher); err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		imported++
	}

	s.log.Info().Int64("project", projectID).Int("count", imported).Msg("vouchers imported")
	return imported, nil
}

func parseVoucherRecord(projectID int64, record []string) (*domain.Voucher, error) {
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}

	date, err := time.Parse("02/01/2006", record[2])
	if err != nil {
		return nil, fmt.Errorf("date %q: expected dd/mm/yyyy", record[2])
	}

	quantity, err := strconv.ParseFloat(record[3], 64)
	if err != nil {
		return nil, fmt.Errorf("quantity %q: %v", record[3], err)
	}

	var unitPrice *float64
	if record[5] != "" {
		price, err := strconv.ParseFloat(record[5], 64)
		if err != nil {
			return nil, fmt.Errorf("unit_price %q: %v", record[5], err)
		}
		unitPrice = &price
	}

	return &domain.Voucher{
		ProjectID:      projectID,
		Type:           domain.VoucherType(record[0]),
		Supplier:       record[1],
		Date:           date,
		Quantity:       quantity,
		Unit:           record[4],
		UnitPrice:      unitPrice,
		Materials:      record[6],
		ConcreteGrade:  record[7],
		LoadLocation:   record[8],
		UnloadLocation: record[9],
		Status:         "validated",
		CreatedAt:      time.Now(),
	}, nil
}
