package cli

import (
	"github.com/bobzap/batisync/internal/app"
	"github.com/spf13/cobra"
)

var appInstance *app.App

var rootCmd = &cobra.Command{
	Use:   "batisync",
	Short: "Invoice and voucher reconciliation for construction projects",
	Long: `Batisync reconciles site vouchers (delivery, evacuation, concrete,
materials) against supplier invoices and tracks project finances.

By default, running batisync without arguments launches the interactive TUI.
Use subcommands for CLI operations.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Default behavior: launch TUI
		launchTUI(cmd, args)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetApp sets the app instance for commands to use
func SetApp(a *app.App) {
	appInstance = a
}

func init() {
	// Add all subcommands
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(vouchersCmd)
	rootCmd.AddCommand(invoicesCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(tuiCmd)
}
