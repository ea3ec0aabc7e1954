package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbvault/kbvault/internal/models"
)

func newImportCmd() *cobra.Command {
	var (
		replace        bool
		overwriteUsers bool
		dryRun         bool
		validateOnly   bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a JSON snapshot",
		Long: `Import a snapshot produced by 'kbvault export'. By default the snapshot is
merged into the existing data: every entity gets a fresh id and references
are remapped; users whose username already exists are skipped. Use --replace
to wipe all data first, turning the import into a restore.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				fatal("read snapshot", err)
			}

			var data models.ExportFormat
			if err := json.Unmarshal(raw, &data); err != nil {
				fatal("parse snapshot", fmt.Errorf("%w: %v", models.ErrSnapshotMalformed, err))
			}

			fmt.Fprintf(os.Stderr, "Snapshot: schema v%d, %d knowledge, %d decisions, %d users (kbvault %s)\n",
				data.SchemaVersion, data.Stats.KnowledgeCount, data.Stats.DecisionCount,
				data.Stats.UserCount, data.AppVersion)

			if validateOnly {
				problems := app.export.Validate(&data)
				if len(problems) == 0 {
					fmt.Fprintln(os.Stderr, "✓ Validation passed")
					return
				}
				fmt.Fprintf(os.Stderr, "✗ %d problem(s):\n", len(problems))
				for _, p := range problems {
					fmt.Fprintf(os.Stderr, "  - %s\n", p)
				}
				fatal("validate snapshot", fmt.Errorf("%w: %d problems found", models.ErrSnapshotMalformed, len(problems)))
			}

			opts := models.ImportOptions{
				Replace:        replace,
				OverwriteUsers: overwriteUsers,
				DryRun:         dryRun,
			}

			result, err := app.export.Import(context.Background(), &data, opts)
			if err != nil {
				if result != nil {
					for _, p := range result.Errors {
						fmt.Fprintf(os.Stderr, "  - %s\n", p)
					}
				}
				fatal("import snapshot", err)
			}

			prefix := ""
			if dryRun {
				prefix = "(dry run) "
			}
			fmt.Fprintf(os.Stderr, "%sKnowledge: %d created\n", prefix, result.KnowledgeCreated)
			fmt.Fprintf(os.Stderr, "%sDecisions: %d created (%d comments)\n", prefix, result.DecisionsCreated, result.CommentsCreated)
			fmt.Fprintf(os.Stderr, "%sUsers: %d created, %d overwritten, %d skipped\n", prefix, result.UsersCreated, result.UsersOverwritten, result.UsersSkipped)
			fmt.Fprintf(os.Stderr, "%sCorpora: %d created (%d files)\n", prefix, result.CorporaCreated, result.FilesCreated)
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Wipe existing data before importing")
	cmd.Flags().BoolVar(&overwriteUsers, "overwrite-users", false, "Update accounts whose username already exists")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and count without writing")
	cmd.Flags().BoolVar(&validateOnly, "validate", false, "Only validate the file, don't import")

	return cmd
}
