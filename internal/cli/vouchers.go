package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/bobzap/batisync/internal/domain"
	"github.com/bobzap/batisync/internal/repository"
	"github.com/spf13/cobra"
)

var vouchersCmd = &cobra.Command{
	Use:   "vouchers",
	Short: "Browse and import site vouchers",
	Long: `Vouchers are read-only site activity records. They enter through
CSV import and change only by being linked to or unlinked from invoices.`,
}

var vouchersListCmd = &cobra.Command{
	Use:   "list [project]",
	Short: "List vouchers for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		projectID, err := resolveProjectID(ctx, args[0])
		if err != nil {
			return err
		}

		filters, err := voucherFiltersFromFlags(cmd)
		if err != nil {
			return err
		}

		availableOnly, _ := cmd.Flags().GetBool("available")

		var vouchers []*domain.Voucher
		if availableOnly {
			vouchers, err = appInstance.VoucherService.ListAvailable(ctx, projectID, filters)
		} else {
			vouchers, err = appInstance.VoucherService.List(ctx, projectID, filters)
		}
		if err != nil {
			return fmt.Errorf("failed to list vouchers: %w", err)
		}

		if len(vouchers) == 0 {
			fmt.Println("No vouchers found")
			return nil
		}

		fmt.Printf("%-5s %-12s %-20s %-12s %10s %-6s %12s %-10s\n",
			"ID", "Type", "Supplier", "Date", "Qty", "Unit", "Amount", "Invoice")
		fmt.Println("------------------------------------------------------------------------------------------")
		for _, v := range vouchers {
			invoiceRef := "-"
			if v.InvoiceID != nil {
				invoiceRef = fmt.Sprintf("#%d", *v.InvoiceID)
			}
			amount := "-"
			if v.UnitPrice != nil {
				amount = fmt.Sprintf("%.2f", v.Amount())
			}
			fmt.Printf("%-5d %-12s %-20s %-12s %10.2f %-6s %12s %-10s\n",
				v.ID,
				v.Type,
				truncate(v.Supplier, 20),
				v.Date.Format("02/01/2006"),
				v.Quantity,
				v.Unit,
				amount,
				invoiceRef,
			)
		}

		fmt.Printf("\nTotal: %d voucher(s)\n", len(vouchers))
		return nil
	},
}

var vouchersImportCmd = &cobra.Command{
	Use:   "import [project] [csv_file]",
	Short: "Import vouchers from a CSV file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		projectID, err := resolveProjectID(ctx, args[0])
		if err != nil {
			return err
		}

		file, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[1], err)
		}
		defer file.Close()

		count, err := appInstance.VoucherService.Import(ctx, projectID, file)
		if err != nil {
			return fmt.Errorf("import failed after %d row(s): %w", count, err)
		}

		fmt.Printf("✓ Imported %d voucher(s)\n", count)
		return nil
	},
}

func voucherFiltersFromFlags(cmd *cobra.Command) (repository.VoucherFilters, error) {
	var filters repository.VoucherFilters

	if cmd.Flags().Changed("type") {
		typeStr, _ := cmd.Flags().GetString("type")
		t := domain.VoucherType(typeStr)
		if !t.IsValid() {
			return filters, fmt.Errorf("invalid voucher type '%s'", typeStr)
		}
		filters.Type = &t
	}

	filters.Status, _ = cmd.Flags().GetString("status")
	filters.Supplier, _ = cmd.Flags().GetString("supplier")

	if cmd.Flags().Changed("from") {
		fromStr, _ := cmd.Flags().GetString("from")
		from, err := parseDate(fromStr)
		if err != nil {
			return filters, fmt.Errorf("invalid from date: %w", err)
		}
		filters.StartDate = &from
	}

	if cmd.Flags().Changed("to") {
		toStr, _ := cmd.Flags().GetString("to")
		to, err := parseDate(toStr)
		if err != nil {
			return filters, fmt.Errorf("invalid to date: %w", err)
		}
		filters.EndDate = &to
	}

	return filters, nil
}

func init() {
	vouchersCmd.AddCommand(vouchersListCmd)
	vouchersCmd.AddCommand(vouchersImportCmd)

	vouchersListCmd.Flags().String("type", "", "Filter by type (delivery, evacuation, concrete, materials)")
	vouchersListCmd.Flags().String("status", "", "Filter by reporting status")
	vouchersListCmd.Flags().String("supplier", "", "Filter by supplier name")
	vouchersListCmd.Flags().String("from", "", "Only vouchers on or after this date")
	vouchersListCmd.Flags().String("to", "", "Only vouchers on or before this date")
	vouchersListCmd.Flags().Bool("available", false, "Only vouchers not linked to any invoice")
}
