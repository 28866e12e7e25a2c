package repository

import (
	"database/sql"
	"strings"
	"time"

	"github.com/bobzap/batisync/internal/domain"
)

// timeLayout is the RFC3339 format for storing times in SQLite
const timeLayout = time.RFC3339

// parseTime parses a time string in RFC3339 format
func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// nullTimeStr formats an optional time for storage
func nullTimeStr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(timeLayout)
}

// parseNullTime parses an optional stored time
func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// mapConstraintErr translates SQLite unique-constraint violations into
// the domain errors callers are expected to match on
func mapConstraintErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "voucher_invoice_links.voucher_id") {
		return domain.ErrLinkConflict
	}
	if strings.Contains(msg, "invoices.project_id, invoices.number") {
		return domain.ErrDuplicateNumber
	}
	return err
}
