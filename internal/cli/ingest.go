package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/dxplatform-backend/internal/app"
	"github.com/yungbote/dxplatform-backend/internal/ingestion"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a legacy or dual-identity JSON export",
	Long: `Ingest reads a JSON export and upserts it. The payload shape is detected
from its top-level keys, as on POST /api/v1/ingest.

Examples:
  dxctl ingest --file tower_a.json
  cat export.json | dxctl ingest --file -`,
	Args: cobra.NoArgs,
	RunE: withApp(app.Options{}, func(ctx context.Context, a *app.App, cmd *cobra.Command, _ []string) error {
		raw, err := readInput(cmd.InOrStdin(), ingestFile)
		if err != nil {
			return err
		}
		return runIngest(ctx, a.Services.Pipeline, cmd.OutOrStdout(), raw)
	}),
}

var ingestFile string

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "JSON file to ingest, or - for stdin")
	_ = ingestCmd.MarkFlagRequired("file")
}

func runIngest(ctx context.Context, pipeline ingestion.Pipeline, out io.Writer, raw []byte) error {
	cmd, err := ingestion.DecodePayload(raw)
	if err != nil {
		return err
	}
	res, err := pipeline.Ingest(ctx, cmd)
	if err != nil {
		return err
	}
	return writeJSON(out, res)
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return raw, nil
}
