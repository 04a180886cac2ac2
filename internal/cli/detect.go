package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/yungbote/dxplatform-backend/internal/app"
	"github.com/yungbote/dxplatform-backend/internal/detection"
)

var detectCmd = &cobra.Command{
	Use:   "detect <object-id>...",
	Short: "Detect which projects own the given object ids",
	Long: `Detect matches object ids against each active project's latest revision.

Examples:
  dxctl detect 2O2Fr$t4X7Zf8NOew3FLOH 3f2504e0-4f89-11d3-9a0c-0305e82c3301
  dxctl detect a b c --min-confidence 0.5 --max-candidates 3`,
	Args: cobra.MinimumNArgs(1),
	RunE: withApp(app.Options{}, func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
		return runDetect(ctx, a.Services.Detection, cmd.OutOrStdout(), args, detectMinConfidence, detectMaxCandidates)
	}),
}

var (
	detectMinConfidence float64
	detectMaxCandidates int
)

func init() {
	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().Float64Var(&detectMinConfidence, "min-confidence", detection.DefaultMinConfidence, "Minimum match ratio in [0,1]")
	detectCmd.Flags().IntVar(&detectMaxCandidates, "max-candidates", detection.DefaultMaxCandidates, "Maximum candidates returned")
}

func runDetect(ctx context.Context, engine detection.Engine, out io.Writer, ids []string, minConfidence float64, maxCandidates int) error {
	resp, err := engine.Detect(ctx, detection.Request{
		ObjectIDs:     ids,
		MinConfidence: &minConfidence,
		MaxCandidates: &maxCandidates,
	})
	if err != nil {
		return err
	}
	return writeJSON(out, resp)
}
