package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/dxplatform-backend/internal/app"
	"github.com/yungbote/dxplatform-backend/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "dxctl",
	Short: "Operator CLI for the BIM ingestion platform",
	Long: `dxctl runs schema migrations, ingests model exports, imports Navisworks
hierarchy CSVs and runs project detection against the configured Postgres.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var configFile string

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML config file (overrides DX_CONFIG_FILE)")
}

type runFunc func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error

// withApp loads configuration, wires the app for the duration of one command and tears it
// down afterwards.
func withApp(opts app.Options, fn runFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(configFile) != "" {
			if err := os.Setenv("DX_CONFIG_FILE", configFile); err != nil {
				return err
			}
		}
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		// Keep the CLI quiet unless asked otherwise.
		if os.Getenv("LOG_MODE") == "" {
			cfg.Logging.Mode = "test"
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := app.New(ctx, cfg, opts)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(ctx, a, cmd, args)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
