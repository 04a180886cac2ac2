package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/dxplatform-backend/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables, indexes and the latest-revision view",
	Args:  cobra.NoArgs,
	RunE: withApp(app.Options{Migrate: true}, func(_ context.Context, _ *app.App, cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return err
	}),
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
