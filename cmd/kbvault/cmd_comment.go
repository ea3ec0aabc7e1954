package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbvault/kbvault/internal/models"
)

func newCommentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Comment on decision records",
	}
	cmd.AddCommand(commentAddCmd())
	cmd.AddCommand(commentListCmd())
	return cmd
}

func commentAddCmd() *cobra.Command {
	var author string
	var rating int
	cmd := &cobra.Command{
		Use:   "add <decision-id> <body>",
		Short: "Attach a comment to a decision",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			req := models.CreateCommentRequest{
				DecisionID: parseID(args[0]),
				Author:     author,
				Body:       args[1],
			}
			if cmd.Flags().Changed("rating") {
				req.Rating = &rating
			}
			comment, err := app.comments.CreateComment(context.Background(), req)
			if err != nil {
				fatal("add comment", err)
			}
			output(comment, fmt.Sprintf("%d", comment.ID))
		},
	}
	cmd.Flags().StringVar(&author, "author", "", "Comment author")
	cmd.Flags().IntVar(&rating, "rating", 0, "Rating between 1 and 5")
	return cmd
}

func commentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <decision-id>",
		Short: "List comments on a decision, oldest first",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			comments, err := app.comments.ListComments(context.Background(), parseID(args[0]))
			if err != nil {
				fatal("list comments", err)
			}
			if flagFmt == "table" {
				headers := []string{"ID", "AUTHOR", "RATING", "BODY", "CREATED"}
				var rows [][]string
				for _, c := range comments {
					rating := "-"
					if c.Rating != nil {
						rating = fmt.Sprintf("%d", *c.Rating)
					}
					rows = append(rows, []string{
						fmt.Sprintf("%d", c.ID),
						c.Author,
						rating,
						cell(c.Body, 60),
						c.CreatedAt.Format("2006-01-02 15:04:05"),
					})
				}
				formatTable(headers, rows)
				return
			}
			if flagFmt == "quiet" {
				for _, c := range comments {
					fmt.Println(c.ID)
				}
				return
			}
			output(comments, "")
		},
	}
}
