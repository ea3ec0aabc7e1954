package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the full knowledge base to a JSON snapshot",
		Long: `Export all knowledge entries, decision records, comments, users, and
corpora to a portable JSON snapshot. The snapshot is full-fidelity: user
credentials and corpus file hashes are preserved. Use 'kbvault import' to
restore.`,
		Run: func(cmd *cobra.Command, args []string) {
			data, err := app.export.Export(context.Background())
			if err != nil {
				fatal("export", err)
			}

			out, err := json.MarshalIndent(data, "", "  ")
			if err != nil {
				fatal("encode snapshot", err)
			}

			if outputPath == "" {
				outputPath = fmt.Sprintf("kbvault-export-%s.json",
					time.Now().UTC().Format("20060102T150405Z"))
			}

			if outputPath == "-" {
				if _, err := os.Stdout.Write(out); err != nil {
					fatal("write snapshot", err)
				}
				return
			}

			// Snapshots carry password hashes.
			if err := os.WriteFile(outputPath, out, 0o600); err != nil {
				fatal("write snapshot", err)
			}

			fmt.Fprintf(os.Stderr, "Exported %d knowledge entries, %d decisions, %d users to %s\n",
				data.Stats.KnowledgeCount, data.Stats.DecisionCount, data.Stats.UserCount, outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: kbvault-export-<timestamp>.json, use - for stdout)")

	return cmd
}
