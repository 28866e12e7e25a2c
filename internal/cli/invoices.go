package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bobzap/batisync/internal/domain"
	"github.com/bobzap/batisync/internal/repository"
	"github.com/spf13/cobra"
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Manage supplier invoices",
	Long:  `Create, list, link, and manage supplier invoices.`,
}

var invoicesListCmd = &cobra.Command{
	Use:   "list [project]",
	Short: "List invoices for a project",
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

		if len(invoices) == 0 {
			fmt.Println("No invoices found")
			return nil
		}

		now := time.Now()
		fmt.Printf("%-5s %-15s %-20s %-12s %-12s %12s %-10s %s\n",
			"ID", "Number", "Supplier", "Date", "Due", "TTC", "Status", "Payment")
		fmt.Println("----------------------------------------------------------------------------------------------")
		for _, inv := range invoices {
			payment := "-"
			if inv.IsPaid() {
				payment = inv.PaymentDate.Format("02/01/2006")
			} else if inv.IsOverdue(now) {
				payment = "OVERDUE"
			}
			fmt.Printf("%-5d %-15s %-20s %-12s %-12s %12.2f %-10s %s\n",
				inv.ID,
				truncate(inv.Number, 15),
				truncate(inv.Supplier, 20),
				inv.Date.Format("02/01/2006"),
				inv.DueDate.Format("02/01/2006"),
				inv.AmountTTC,
				inv.Status,
				payment,
			)
		}

		fmt.Printf("\nTotal: %d invoice(s)\n", len(invoices))
		return nil
	},
}

var invoicesCreateCmd = &cobra.Command{
	Use:   "create [project]",
	Short: "Create a new invoice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		projectID, err := resolveProjectID(ctx, args[0])
		if err != nil {
			return err
		}

		number, _ := cmd.Flags().GetString("number")
		supplier, _ := cmd.Flags().GetString("supplier")

		dateStr, _ := cmd.Flags().GetString("date")
		date, err := parseDate(dateStr)
		if err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}

		dueStr, _ := cmd.Flags().GetString("due")
		due, err := parseDate(dueStr)
		if err != nil {
			return fmt.Errorf("invalid due date: %w", err)
		}

		draft := domain.NewInvoice(projectID, number, supplier, date, due)
		draft.Reference, _ = cmd.Flags().GetString("reference")
		draft.AmountHT, _ = cmd.Flags().GetFloat64("amount")
		draft.VATRate, _ = cmd.Flags().GetFloat64("vat")

		invoice, err := appInstance.InvoiceService.Save(ctx, draft)
		if err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}

		fmt.Printf("✓ Invoice created: %s (#%d)\n", invoice.Number, invoice.ID)
		fmt.Printf("  HT:  %.2f\n", invoice.AmountHT)
		fmt.Printf("  TTC: %.2f (VAT %.2f%%)\n", invoice.AmountTTC, invoice.VATRate)
		return nil
	},
}

var invoicesShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show invoice details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "invoice")
		if err != nil {
			return err
		}

		invoice, err := appInstance.InvoiceService.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get invoice: %w", err)
		}

		fmt.Println(strings.Repeat("=", 80))
		fmt.Printf("Invoice: %s\n", invoice.Number)
		fmt.Println(strings.Repeat("=", 80))
		fmt.Printf("Supplier: %s\n", invoice.Supplier)
		if invoice.Reference != "" {
			fmt.Printf("Reference: %s\n", invoice.Reference)
		}
		fmt.Printf("Issued: %s   Due: %s\n",
			invoice.Date.Format("02/01/2006"),
			invoice.DueDate.Format("02/01/2006"),
		)
		fmt.Printf("Status: %s\n", invoice.Status.Label())
		if invoice.IsPaid() {
			fmt.Printf("Paid: %s", invoice.PaymentDate.Format("02/01/2006"))
			if invoice.PaymentReference != "" {
				fmt.Printf(" (%s)", invoice.PaymentReference)
			}
			fmt.Println()
		} else if invoice.IsOverdue(time.Now()) {
			fmt.Println("Payment: OVERDUE")
		}
		fmt.Println()

		if len(invoice.Links) > 0 {
			fmt.Println("Linked vouchers:")
			fmt.Println(strings.Repeat("-", 80))
			fmt.Printf("%-8s %12s\n", "Voucher", "Amount")
			var total float64
			for _, link := range invoice.Links {
				fmt.Printf("#%-7d %12.2f\n", link.VoucherID, link.Amount)
				total += link.Amount
			}
			fmt.Println(strings.Repeat("-", 80))
			fmt.Printf("Linked total: %.2f\n", domain.Round2(total))
			fmt.Println()
		}

		if len(invoice.Documents) > 0 {
			fmt.Println("Documents:")
			for _, doc := range invoice.Documents {
				fmt.Printf("  #%d %s (%s)\n", doc.ID, doc.Name, appInstance.Docs.Path(doc.Locator))
			}
			fmt.Println()
		}

		fmt.Printf("Amount HT:  %.2f\n", invoice.AmountHT)
		fmt.Printf("VAT (%.2f%%): %.2f\n", invoice.VATRate, domain.Round2(invoice.AmountTTC-invoice.AmountHT))
		fmt.Printf("Amount TTC: %.2f\n", invoice.AmountTTC)
		fmt.Println(strings.Repeat("=", 80))

		return nil
	},
}

var invoicesLinkCmd = &cobra.Command{
	Use:   "link [invoice_id] [voucher_ids...]",
	Short: "Link vouchers to an invoice",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		invoiceID, err := parseID(args[0], "invoice")
		if err != nil {
			return err
		}

		voucherIDs := make([]int64, 0, len(args)-1)
		for _, idStr := range args[1:] {
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid voucher ID '%s'", idStr)
			}
			voucherIDs = append(voucherIDs, id)
		}

		invoice, err := appInstance.InvoiceService.LinkVouchers(ctx, invoiceID, voucherIDs)
		if err != nil {
			return fmt.Errorf("failed to link vouchers: %w", err)
		}

		fmt.Printf("✓ Invoice %s now has %d linked voucher(s)\n", invoice.Number, len(invoice.Links))
		fmt.Printf("  Linked total: %.2f\n", appInstance.Resolver.Total(invoice.Links))
		return nil
	},
}

var invoicesUnlinkCmd = &cobra.Command{
	Use:   "unlink [invoice_id] [voucher_id]",
	Short: "Unlink a voucher from an invoice",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		invoiceID, err := parseID(args[0], "invoice")
		if err != nil {
			return err
		}
		voucherID, err := parseID(args[1], "voucher")
		if err != nil {
			return err
		}

		invoice, err := appInstance.InvoiceService.UnlinkVoucher(ctx, invoiceID, voucherID)
		if err != nil {
			return fmt.Errorf("failed to unlink voucher: %w", err)
		}

		fmt.Printf("✓ Voucher %d unlinked from invoice %s\n", voucherID, invoice.Number)
		return nil
	},
}

var invoicesSetStatusCmd = &cobra.Command{
	Use:   "set-status [id] [status]",
	Short: "Set invoice status (draft, pending, validated, rejected)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "invoice")
		if err != nil {
			return err
		}

		status := domain.InvoiceStatus(args[1])
		if err := appInstance.InvoiceService.SetStatus(ctx, id, status); err != nil {
			return fmt.Errorf("failed to set status: %w", err)
		}

		fmt.Printf("✓ Invoice #%d is now %s\n", id, status)
		return nil
	},
}

var invoicesMarkPaidCmd = &cobra.Command{
	Use:   "mark-paid [id]",
	Short: "Record a payment against an invoice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "invoice")
		if err != nil {
			return err
		}

		// Parse payment date
		dateStr, _ := cmd.Flags().GetString("date")
		paidDate := time.Now()
		if dateStr != "" {
			var err error
			paidDate, err = parseDate(dateStr)
			if err != nil {
				return fmt.Errorf("invalid payment date: %w", err)
			}
		}

		reference, _ := cmd.Flags().GetString("reference")

		if err := appInstance.InvoiceService.MarkPaid(ctx, id, paidDate, reference); err != nil {
			return fmt.Errorf("failed to mark invoice as paid: %w", err)
		}

		fmt.Printf("✓ Invoice #%d marked as paid on %s\n", id, paidDate.Format("02/01/2006"))
		return nil
	},
}

var invoicesAttachDocCmd = &cobra.Command{
	Use:   "attach-doc [invoice_id] [file]",
	Short: "Attach a document file to an invoice",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		invoiceID, err := parseID(args[0], "invoice")
		if err != nil {
			return err
		}

		doc, err := appInstance.InvoiceService.AttachDocument(ctx, invoiceID, args[1])
		if err != nil {
			return fmt.Errorf("failed to attach document: %w", err)
		}

		fmt.Printf("✓ Document attached: %s\n", doc.Name)
		return nil
	},
}

var invoicesRemoveDocCmd = &cobra.Command{
	Use:   "rm-doc [invoice_id] [document_id]",
	Short: "Remove a document from an invoice",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		invoiceID, err := parseID(args[0], "invoice")
		if err != nil {
			return err
		}
		documentID, err := parseID(args[1], "document")
		if err != nil {
			return err
		}

		if err := appInstance.InvoiceService.RemoveDocument(ctx, invoiceID, documentID); err != nil {
			return fmt.Errorf("failed to remove document: %w", err)
		}

		fmt.Printf("✓ Document %d removed from invoice %d\n", documentID, invoiceID)
		return nil
	},
}

var invoicesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an invoice, releasing its vouchers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "invoice")
		if err != nil {
			return err
		}

		if err := appInstance.InvoiceService.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete invoice: %w", err)
		}

		fmt.Printf("✓ Invoice #%d deleted\n", id)
		return nil
	},
}

func invoiceFiltersFromFlags(cmd *cobra.Command) (repository.InvoiceFilters, error) {
	var filters repository.InvoiceFilters

	if cmd.Flags().Changed("status") {
		statusStr, _ := cmd.Flags().GetString("status")
		s := domain.InvoiceStatus(statusStr)
		if !s.IsValid() {
			return filters, fmt.Errorf("invalid status '%s'", statusStr)
		}
		filters.Status = &s
	}

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

	if cmd.Flags().Changed("paid") {
		paid, _ := cmd.Flags().GetBool("paid")
		filters.IsPaid = &paid
	}

	if cmd.Flags().Changed("overdue") {
		overdue, _ := cmd.Flags().GetBool("overdue")
		filters.IsOverdue = &overdue
	}

	return filters, nil
}

func init() {
	invoicesCmd.AddCommand(invoicesListCmd)
	invoicesCmd.AddCommand(invoicesCreateCmd)
	invoicesCmd.AddCommand(invoicesShowCmd)
	invoicesCmd.AddCommand(invoicesLinkCmd)
	invoicesCmd.AddCommand(invoicesUnlinkCmd)
	invoicesCmd.AddCommand(invoicesSetStatusCmd)
	invoicesCmd.AddCommand(invoicesMarkPaidCmd)
	invoicesCmd.AddCommand(invoicesAttachDocCmd)
	invoicesCmd.AddCommand(invoicesRemoveDocCmd)
	invoicesCmd.AddCommand(invoicesDeleteCmd)

	// List flags
	invoicesListCmd.Flags().String("status", "", "Filter by status (draft, pending, validated, rejected)")
	invoicesListCmd.Flags().String("supplier", "", "Filter by supplier name")
	invoicesListCmd.Flags().String("from", "", "Only invoices issued on or after this date")
	invoicesListCmd.Flags().String("to", "", "Only invoices issued on or before this date")
	invoicesListCmd.Flags().Bool("paid", false, "Filter by payment state")
	invoicesListCmd.Flags().Bool("overdue", false, "Filter by overdue state")

	// Create flags
	invoicesCreateCmd.Flags().String("number", "", "Invoice number (required, unique per project)")
	invoicesCreateCmd.Flags().String("supplier", "", "Supplier name (required)")
	invoicesCreateCmd.Flags().String("date", "today", "Issue date")
	invoicesCreateCmd.Flags().String("due", "", "Due date (required)")
	invoicesCreateCmd.Flags().String("reference", "", "Supplier reference")
	invoicesCreateCmd.Flags().Float64("amount", 0, "Amount excluding VAT (0 = derive from linked vouchers)")
	invoicesCreateCmd.Flags().Float64("vat", 0, "VAT rate in percent (7.7 = 7.7%)")
	invoicesCreateCmd.MarkFlagRequired("number")
	invoicesCreateCmd.MarkFlagRequired("supplier")
	invoicesCreateCmd.MarkFlagRequired("due")

	// Mark paid flags
	invoicesMarkPaidCmd.Flags().String("date", "", "Payment date (defaults to today)")
	invoicesMarkPaidCmd.Flags().String("reference", "", "Payment reference")
}
