package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbvault/kbvault/internal/models"
	"github.com/kbvault/kbvault/internal/service"
)

func newDecisionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decision",
		Short: "Manage decision records",
	}
	cmd.AddCommand(decisionAddCmd())
	cmd.AddCommand(decisionListCmd())
	cmd.AddCommand(decisionViewCmd())
	cmd.AddCommand(decisionUpdateCmd())
	cmd.AddCommand(decisionDeleteCmd())
	cmd.AddCommand(decisionSearchCmd())
	return cmd
}

func decisionAddCmd() *cobra.Command {
	var background, steps, result string
	var tags []string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Record a decision",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := models.CreateDecisionRequest{
				Title:      args[0],
				Background: background,
				Steps:      steps,
				Result:     result,
				Tags:       tags,
			}
			record, err := app.decisions.CreateDecision(context.Background(), req)
			if err != nil {
				fatal("add decision", err)
			}
			output(record, fmt.Sprintf("%d", record.ID))
		},
	}
	cmd.Flags().StringVar(&background, "background", "", "Situation that led to the decision")
	cmd.Flags().StringVar(&steps, "steps", "", "Steps taken")
	cmd.Flags().StringVar(&result, "result", "", "Outcome, if known")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Tags (comma separated or repeated)")
	return cmd
}

func decisionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List decision records",
		Run: func(cmd *cobra.Command, args []string) {
			records, err := app.decisions.ListDecisions(context.Background())
			if err != nil {
				fatal("list decisions", err)
			}
			if flagFmt == "table" {
				headers := []string{"ID", "TITLE", "COMMENTS", "RATING", "TAGS", "CREATED"}
				var rows [][]string
				for _, r := range records {
					rating := "-"
					if r.AverageRating != nil {
						rating = fmt.Sprintf("%.1f", *r.AverageRating)
					}
					rows = append(rows, []string{
						fmt.Sprintf("%d", r.ID),
						cell(r.Title, 40),
						fmt.Sprintf("%d", r.CommentCount),
						rating,
						strings.Join(r.Tags, ","),
						r.CreatedAt.Format("2006-01-02 15:04:05"),
					})
				}
				formatTable(headers, rows)
				return
			}
			if flagFmt == "quiet" {
				for _, r := range records {
					fmt.Println(r.ID)
				}
				return
			}
			output(records, "")
		},
	}
}

func decisionViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view <id>",
		Short: "Show a decision record with its comments",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			detail, err := app.decisions.GetDecision(context.Background(), parseID(args[0]))
			if err != nil {
				fatal("view decision", err)
			}
			output(detail, fmt.Sprintf("%d", detail.ID))
		},
	}
}

func decisionUpdateCmd() *cobra.Command {
	var title, background, steps, result string
	var tags []string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a decision record",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			// Changed distinguishes an explicitly empty value from an
			// omitted flag, so --tags="" clears all tags.
			req := models.UpdateDecisionRequest{}
			if cmd.Flags().Changed("title") {
				req.Title = &title
			}
			if cmd.Flags().Changed("background") {
				req.Background = &background
			}
			if cmd.Flags().Changed("steps") {
				req.Steps = &steps
			}
			if cmd.Flags().Changed("result") {
				req.Result = &result
			}
			if cmd.Flags().Changed("tags") {
				req.Tags = &tags
			}
			record, err := app.decisions.UpdateDecision(context.Background(), parseID(args[0]), req)
			if err != nil {
				fatal("update decision", err)
			}
			output(record, fmt.Sprintf("%d", record.ID))
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&background, "background", "", "New background")
	cmd.Flags().StringVar(&steps, "steps", "", "New steps")
	cmd.Flags().StringVar(&result, "result", "", "New result")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "New tags; pass an empty value to clear")
	return cmd
}

func decisionDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a decision record and its comments",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := app.decisions.DeleteDecision(context.Background(), parseID(args[0])); err != nil {
				fatal("delete decision", err)
			}
			fmt.Println("deleted")
		},
	}
}

func decisionSearchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search decisions by keyword",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			results, err := app.decisions.SearchDecisions(context.Background(), args[0], limit)
			if err != nil {
				fatal("search decisions", err)
			}
			if flagFmt == "table" {
				headers := []string{"SCORE", "ID", "TITLE", "TAGS"}
				var rows [][]string
				for _, r := range results {
					rows = append(rows, []string{
						fmt.Sprintf("%d", r.Score),
						fmt.Sprintf("%d", r.ID),
						cell(r.Title, 40),
						strings.Join(r.Tags, ","),
					})
				}
				formatTable(headers, rows)
				return
			}
			if flagFmt == "quiet" {
				for _, r := range results {
					fmt.Println(r.ID)
				}
				return
			}
			output(results, "")
		},
	}
	cmd.Flags().IntVar(&limit, "limit", service.DefaultSearchLimit, "Max results (0 for all)")
	return cmd
}
