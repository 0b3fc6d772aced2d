package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"gitlab.com/nunet/yarn-data/internal/db"
)

func NewMigrateCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app) error {
				if err := db.Migrate(a.db.WithContext(ctx)); err != nil {
					return fmt.Errorf("unable to migrate: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Database migrated")
				return nil
			})
		},
	}
}
