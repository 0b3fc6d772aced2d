package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = NewRootCmd(openFromConfig)

// NewRootCmd builds the command tree. Every subcommand opens its stores through open.
func NewRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:     "yarn",
		Short:   "Tenant-isolated order data",
		Long:    `Manage orders, products and the audit trail of a tenant. Reads only see the tenant's records and writes to another tenant's records are refused.`,
		Version: version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: false,
			HiddenDefaultCmd:  true,
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	root.PersistentFlags().Int64P("tenant", "t", 0, "tenant the command acts for")
	root.PersistentFlags().Int64P("owner", "o", 0, "owner within the tenant")
	root.PersistentFlags().Bool("metrics", false, "print repository operation counters when done")

	root.AddCommand(NewMigrateCmd(open))
	root.AddCommand(NewOrderCmd(open))
	root.AddCommand(NewProductCmd(open))
	root.AddCommand(NewAuditCmd(open))
	root.AddCommand(NewVersionCmd())

	return root
}

// Execute runs the command named on the command line. Cancelling ctx abandons
// the queries in flight.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
