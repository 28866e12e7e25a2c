package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/bobzap/batisync/internal/domain"
)

// exportHeader is the fixed column order of the invoice CSV export
var exportHeader = []string{
	"number", "reference", "supplier", "date", "due_date",
	"amount_ht", "amount_ttc", "vat_rate", "status", "payment_date",
}

const exportDateLayout = "02/01/2006"

// WriteInvoicesCSV writes the invoices to w as CSV in the fixed export
// column order. Dates are dd/mm/yyyy and amounts carry 2 decimals; the
// payment date column is empty for unpaid invoices.
func WriteInvoicesCSV(w io.Writer, invoices []*domain.Invoice) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, inv := range invoices {
		if err := writer.Write(exportRecord(inv)); err != nil {
			return fmt.Errorf("write invoice %s: %w", inv.Number, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func exportRecord(inv *domain.Invoice) []string {
	return []string{
		inv.Number,
		inv.Reference,
		inv.Supplier,
		inv.Date.Format(exportDateLayout),
		inv.DueDate.Format(exportDateLayout),
		formatAmount(inv.AmountHT),
		formatAmount(inv.AmountTTC),
		formatAmount(inv.VATRate),
		inv.Status.Label(),
		formatOptionalDate(inv.PaymentDate),
	}
}

func formatAmount(x float64) string {
	return fmt.Sprintf("%.2f", x)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(exportDateLayout)
}
