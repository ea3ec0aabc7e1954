package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kbvault/kbvault/internal/models"
)

func newCorpusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Manage document corpora",
	}
	cmd.AddCommand(corpusCreateCmd())
	cmd.AddCommand(corpusListCmd())
	cmd.AddCommand(corpusShowCmd())
	cmd.AddCommand(corpusUpdateCmd())
	cmd.AddCommand(corpusIngestCmd())
	cmd.AddCommand(corpusFilesCmd())
	cmd.AddCommand(corpusDeleteCmd())
	return cmd
}

func corpusCreateCmd() *cobra.Command {
	var basePath, description string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a corpus",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := models.CreateCorpusRequest{
				Name:        args[0],
				BasePath:    basePath,
				Description: description,
			}
			corpus, err := app.corpora.CreateCorpus(context.Background(), req)
			if err != nil {
				fatal("create corpus", err)
			}
			output(corpus, fmt.Sprintf("%d", corpus.ID))
		},
	}
	cmd.Flags().StringVar(&basePath, "base-path", "", "Directory the corpus is ingested from")
	cmd.Flags().StringVar(&description, "description", "", "Corpus description")
	return cmd
}

func corpusListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List corpora",
		Run: func(cmd *cobra.Command, args []string) {
			corpora, err := app.corpora.ListCorpora(context.Background())
			if err != nil {
				fatal("list corpora", err)
			}
			if flagFmt == "table" {
				headers := []string{"ID", "NAME", "BASE_PATH", "CREATED"}
				var rows [][]string
				for _, c := range corpora {
					rows = append(rows, []string{
						fmt.Sprintf("%d", c.ID),
						c.Name,
						c.BasePath,
						c.CreatedAt.Format("2006-01-02 15:04:05"),
					})
				}
				formatTable(headers, rows)
				return
			}
			if flagFmt == "quiet" {
				for _, c := range corpora {
					fmt.Println(c.ID)
				}
				return
			}
			output(corpora, "")
		},
	}
}

func corpusShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id-or-name>",
		Short: "Show a corpus",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			corpus, err := lookupCorpus(context.Background(), args[0])
			if err != nil {
				fatal("show corpus", err)
			}
			output(corpus, fmt.Sprintf("%d", corpus.ID))
		},
	}
}

// lookupCorpus resolves a corpus by numeric id, falling back to name lookup.
func lookupCorpus(ctx context.Context, arg string) (*models.Corpus, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil && id > 0 {
		return app.corpora.GetCorpus(ctx, id)
	}
	return app.corpora.GetCorpusByName(ctx, arg)
}

func corpusUpdateCmd() *cobra.Command {
	var name, basePath, description string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a corpus",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := models.UpdateCorpusRequest{}
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if cmd.Flags().Changed("base-path") {
				req.BasePath = &basePath
			}
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}
			corpus, err := app.corpora.UpdateCorpus(context.Background(), parseID(args[0]), req)
			if err != nil {
				fatal("update corpus", err)
			}
			output(corpus, fmt.Sprintf("%d", corpus.ID))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&basePath, "base-path", "", "New base path")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	return cmd
}

func corpusIngestCmd() *cobra.Command {
	var (
		chunkSize int
		overlap   int
		recursive bool
	)
	cmd := &cobra.Command{
		Use:   "ingest <name> <dir-or-files...>",
		Short: "Ingest text documents into a corpus",
		Long: `Split text documents into overlapping chunks and store each chunk as a
knowledge entry linked to the corpus. The corpus is created when it does not
exist yet. Files whose content is unchanged since the last run are skipped.`,
		Args: cobra.MinimumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			paths := args[1:]

			req := models.CreateCorpusRequest{Name: args[0]}
			dir := ""
			if len(paths) == 1 {
				if info, err := os.Stat(paths[0]); err == nil && info.IsDir() {
					dir = paths[0]
					if abs, err := filepath.Abs(dir); err == nil {
						req.BasePath = abs
					}
				}
			}

			corpus, err := app.corpora.EnsureCorpus(ctx, req)
			if err != nil {
				fatal("ensure corpus", err)
			}

			opts := models.IngestOptions{ChunkSize: chunkSize, Overlap: overlap, Recursive: recursive}

			var report *models.IngestReport
			if dir != "" {
				report, err = app.corpora.IngestDirectory(ctx, corpus.ID, dir, opts)
			} else {
				report, err = app.corpora.IngestPaths(ctx, corpus.ID, paths, opts)
			}
			if err != nil {
				fatal("ingest", err)
			}

			fmt.Fprintf(os.Stderr, "Corpus %q: %d new, %d updated, %d unchanged, %d chunks\n",
				corpus.Name, report.FilesProcessed, report.FilesUpdated, report.FilesUnchanged, report.ChunksCreated)
			for _, name := range report.Skipped {
				fmt.Fprintf(os.Stderr, "  skipped: %s\n", name)
			}
			if flagFmt == "json" {
				formatJSON(report)
			}
		},
	}
	cmd.Flags().IntVar(&chunkSize, "chunk-size", models.DefaultChunkSize, "Chunk size in characters")
	cmd.Flags().IntVar(&overlap, "overlap", models.DefaultOverlap, "Overlap between consecutive chunks in characters")
	cmd.Flags().BoolVar(&recursive, "recursive", true, "Recurse into subdirectories")
	return cmd
}

func corpusFilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files <id>",
		Short: "List ingested files of a corpus",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			files, err := app.corpora.ListFiles(context.Background(), parseID(args[0]))
			if err != nil {
				fatal("list corpus files", err)
			}
			if flagFmt == "table" {
				headers := []string{"ID", "FILE", "HASH", "CREATED"}
				var rows [][]string
				for _, f := range files {
					hash := f.ContentHash
					if len(hash) > 12 {
						hash = hash[:12]
					}
					rows = append(rows, []string{
						fmt.Sprintf("%d", f.ID),
						f.FileName,
						hash,
						f.CreatedAt.Format("2006-01-02 15:04:05"),
					})
				}
				formatTable(headers, rows)
				return
			}
			if flagFmt == "quiet" {
				for _, f := range files {
					fmt.Println(f.ID)
				}
				return
			}
			output(files, "")
		},
	}
}

func corpusDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a corpus with its file records and chunk entries",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := app.corpora.DeleteCorpus(context.Background(), parseID(args[0])); err != nil {
				fatal("delete corpus", err)
			}
			fmt.Println("deleted")
		},
	}
}
