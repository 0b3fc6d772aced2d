package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"gitlab.com/nunet/yarn-data/internal/repositories"
)

func NewAuditCmd(open opener) *cobra.Command {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the tenant's audit trail",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	auditCmd.AddCommand(newAuditListCmd(open))

	return auditCmd
}

func newAuditListCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded changes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := tenantFromFlags(cmd)
			if err != nil {
				return err
			}
			action, _ := cmd.Flags().GetString("action")
			limit, _ := cmd.Flags().GetInt("limit")

			var criteria repositories.Predicate
			if action != "" {
				criteria = repositories.EQ("Action", action)
			}

			return withApp(cmd, open, func(ctx context.Context, a *app) error {
				trail, err := a.auditTrail(owner)
				if err != nil {
					return err
				}
				entries, err := trail.FindAll(ctx, criteria, repositories.Page{
					Limit:   limit,
					OrderBy: repositories.OrderByDescending("CreatedAt"),
				})
				if err != nil {
					return fmt.Errorf("unable to list audit entries: %w", err)
				}

				writeAudit(cmd.OutOrStdout(), entries)
				return nil
			})
		},
	}

	cmd.Flags().StringP("action", "a", "", "only entries for this action, such as order.add")
	cmd.Flags().Int("limit", 20, "maximum number of entries")

	return cmd
}
