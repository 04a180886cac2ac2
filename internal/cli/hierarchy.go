package cli

import (
	"bytes"
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/yungbote/dxplatform-backend/internal/app"
	"github.com/yungbote/dxplatform-backend/internal/hierarchy"
)

var importHierarchyCmd = &cobra.Command{
	Use:   "import-hierarchy",
	Short: "Import a Navisworks hierarchy CSV into a revision",
	Long: `Import a Navisworks selection-tree CSV. The project is resolved by code,
then by name, then by detection over the CSV's object ids.

Examples:
  dxctl import-hierarchy --project TOWER_A --revision 3 --file tree.csv`,
	Args: cobra.NoArgs,
	RunE: withApp(app.Options{}, func(ctx context.Context, a *app.App, cmd *cobra.Command, _ []string) error {
		raw, err := readInput(cmd.InOrStdin(), hierarchyFile)
		if err != nil {
			return err
		}
		return runImportHierarchy(ctx, a.Services.Hierarchy, cmd.OutOrStdout(), hierarchy.UploadRequest{
			ProjectCode:    hierarchyProject,
			RevisionNumber: hierarchyRevision,
			SourceType:     hierarchySource,
			CreatedBy:      hierarchyCreatedBy,
			Body:           bytes.NewReader(raw),
		})
	}),
}

var (
	hierarchyProject   string
	hierarchyRevision  int
	hierarchySource    string
	hierarchyCreatedBy string
	hierarchyFile      string
)

func init() {
	rootCmd.AddCommand(importHierarchyCmd)
	f := importHierarchyCmd.Flags()
	f.StringVar(&hierarchyProject, "project", "", "Project code or name")
	f.IntVar(&hierarchyRevision, "revision", 0, "Revision number (>= 1)")
	f.StringVar(&hierarchySource, "source-type", "navisworks", "Source type of the objects")
	f.StringVar(&hierarchyCreatedBy, "created-by", "", "Recorded as the revision author")
	f.StringVarP(&hierarchyFile, "file", "f", "", "CSV file, or - for stdin")
	_ = importHierarchyCmd.MarkFlagRequired("revision")
	_ = importHierarchyCmd.MarkFlagRequired("file")
}

func runImportHierarchy(ctx context.Context, svc hierarchy.Service, out io.Writer, req hierarchy.UploadRequest) error {
	res, err := svc.Upload(ctx, req)
	if err != nil {
		return err
	}
	return writeJSON(out, res)
}
