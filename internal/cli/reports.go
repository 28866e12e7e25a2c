package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobzap/batisync/internal/domain"
	"github.com/bobzap/batisync/internal/service"
	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [project]",
	Short: "Show the financial summary of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		projectID, err := resolveProjectID(ctx, args[0])
		if err != nil {
			return err
		}

		filters, err := invoiceFiltersFromFlags(cmd)
		if err != nil {
			return err
		}

		now := time.Now()
		summary, err := appInstance.ReportService.ProjectSummary(ctx, projectID, filters, now)
		if err != nil {
			return fmt.Errorf("failed to build summary: %w", err)
		}

		unbilled, err := appInstance.ReportService.UnbilledTotal(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to compute unbilled total: %w", err)
		}

		fmt.Printf("Invoices:    %d\n", summary.Total)
		fmt.Printf("Amount HT:   %.2f\n", summary.AmountHT)
		fmt.Printf("Amount TTC:  %.2f\n", summary.AmountTTC)
		fmt.Println()
		for _, status := range domain.AllInvoiceStatuses {
			fmt.Printf("  %-10s %d\n", status.Label()+":", summary.ByStatus[status])
		}
		fmt.Println()
		fmt.Printf("Paid:        %d\n", summary.PaidCount)
		fmt.Printf("Unpaid:      %d\n", summary.UnpaidCount)
		fmt.Printf("Overdue:     %d\n", summary.OverdueCount)
		fmt.Printf("Due soon:    %d\n", summary.DueSoonCount)
		fmt.Println()
		fmt.Printf("Unbilled vouchers: %.2f\n", unbilled)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [project]",
	Short: "Export invoices to CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		projectID, err := resolveProjectID(ctx, args[0])
		if err != nil {
			return err
		}

		filters, err := invoiceFiltersFromFlags(cmd)
		if err != nil {
			return err
		}

		invoices, err := appInstance.InvoiceService.List(ctx, projectID, filters)
		if err != nil {
			return fmt.Errorf("failed to list invoices: %w", err)
		}

		// Apply the requested sort before writing
		sortField, _ := cmd.Flags().GetString("sort")
		desc, _ := cmd.Flags().GetBool("desc")
		service.SortInvoices(invoices, service.SortField(sortField), desc)

		outPath, _ := cmd.Flags().GetString("output")
		if outPath == "" {
			outPath = filepath.Join(
				appInstance.Config.Export.Dir,
				fmt.Sprintf("invoices-%d-%s.csv", projectID, time.Now().Format("20060102-150405")),
			)
		}

		file, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", outPath, err)
		}
		defer file.Close()

		if err := service.WriteInvoicesCSV(file, invoices); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}

		fmt.Printf("✓ Exported %d invoice(s) to %s\n", len(invoices), outPath)
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{summaryCmd, exportCmd} {
		cmd.Flags().String("status", "", "Filter by status (draft, pending, validated, rejected)")
		cmd.Flags().String("supplier", "", "Filter by supplier name")
		cmd.Flags().String("from", "", "Only invoices issued on or after this date")
		cmd.Flags().String("to", "", "Only invoices issued on or before this date")
		cmd.Flags().Bool("paid", false, "Filter by payment state")
		cmd.Flags().Bool("overdue", false, "Filter by overdue state")
	}

	exportCmd.Flags().String("output", "", "Output file (defaults to the configured export directory)")
	exportCmd.Flags().String("sort", "date", "Sort field (number, supplier, date, dueDate, amountHT, amountTTC, status)")
	exportCmd.Flags().Bool("desc", false, "Sort descending")
}
