package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbvault/kbvault/internal/blueprint"
	"github.com/kbvault/kbvault/internal/models"
)

func newKnowledgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Manage knowledge entries",
	}
	cmd.AddCommand(knowledgeAddCmd())
	cmd.AddCommand(knowledgeListCmd())
	cmd.AddCommand(knowledgeViewCmd())
	cmd.AddCommand(knowledgeUpdateCmd())
	cmd.AddCommand(knowledgeDeleteCmd())
	cmd.AddCommand(knowledgeImportBlueprintCmd())
	cmd.AddCommand(knowledgeBlueprintTemplateCmd())
	return cmd
}

func knowledgeAddCmd() *cobra.Command {
	var question, answer string
	var tags []string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a knowledge entry",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := models.CreateKnowledgeRequest{
				Title:    args[0],
				Question: question,
				Answer:   answer,
				Tags:     tags,
			}
			entry, err := app.knowledge.CreateEntry(context.Background(), req)
			if err != nil {
				fatal("add knowledge entry", err)
			}
			output(entry, fmt.Sprintf("%d", entry.ID))
		},
	}
	cmd.Flags().StringVar(&question, "question", "", "Question this entry answers")
	cmd.Flags().StringVar(&answer, "answer", "", "Answer text")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Tags (comma separated or repeated)")
	return cmd
}

func knowledgeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List knowledge entries",
		Run: func(cmd *cobra.Command, args []string) {
			entries, err := app.knowledge.ListEntries(context.Background())
			if err != nil {
				fatal("list knowledge entries", err)
			}
			renderEntries(entries)
		},
	}
}

// renderEntries prints knowledge entries in the selected output format.
// Shared between list and import-blueprint.
func renderEntries(entries []models.KnowledgeEntry) {
	if flagFmt == "table" {
		headers := []string{"ID", "TITLE", "TAGS", "CREATED"}
		var rows [][]string
		for _, e := range entries {
			rows = append(rows, []string{
				fmt.Sprintf("%d", e.ID),
				cell(e.Title, 40),
				strings.Join(e.Tags, ","),
				e.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		formatTable(headers, rows)
		return
	}
	if flagFmt == "quiet" {
		for _, e := range entries {
			fmt.Println(e.ID)
		}
		return
	}
	output(entries, "")
}

func knowledgeViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view <id>",
		Short: "Show a knowledge entry",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			entry, err := app.knowledge.GetEntry(context.Background(), parseID(args[0]))
			if err != nil {
				fatal("view knowledge entry", err)
			}
			output(entry, fmt.Sprintf("%d", entry.ID))
		},
	}
}

func knowledgeUpdateCmd() *cobra.Command {
	var title, question, answer string
	var tags []string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a knowledge entry",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			// Changed distinguishes an explicitly empty value from an
			// omitted flag, so --tags="" clears all tags.
			req := models.UpdateKnowledgeRequest{}
			if cmd.Flags().Changed("title") {
				req.Title = &title
			}
			if cmd.Flags().Changed("question") {
				req.Question = &question
			}
			if cmd.Flags().Changed("answer") {
				req.Answer = &answer
			}
			if cmd.Flags().Changed("tags") {
				req.Tags = &tags
			}
			entry, err := app.knowledge.UpdateEntry(context.Background(), parseID(args[0]), req)
			if err != nil {
				fatal("update knowledge entry", err)
			}
			output(entry, fmt.Sprintf("%d", entry.ID))
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&question, "question", "", "New question")
	cmd.Flags().StringVar(&answer, "answer", "", "New answer")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "New tags; pass an empty value to clear")
	return cmd
}

func knowledgeDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a knowledge entry",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := app.knowledge.DeleteEntry(context.Background(), parseID(args[0])); err != nil {
				fatal("delete knowledge entry", err)
			}
			fmt.Println("deleted")
		},
	}
}

func knowledgeImportBlueprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-blueprint <file>",
		Short: "Import entries from a knowledge blueprint document",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				fatal("read blueprint", err)
			}
			entries, err := app.knowledge.ImportBlueprint(context.Background(), string(raw))
			if err != nil {
				fatal("import blueprint", err)
			}
			fmt.Fprintf(os.Stderr, "Imported %d entries from %s\n", len(entries), args[0])
			renderEntries(entries)
		},
	}
}

func knowledgeBlueprintTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blueprint-template",
		Short: "Print a blank knowledge blueprint document",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(blueprint.Template)
		},
	}
	// Printing the template needs no database.
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {}
	return cmd
}
