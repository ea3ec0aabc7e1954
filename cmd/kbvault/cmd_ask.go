package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Match a question against stored knowledge",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			matches, err := app.match.Ask(context.Background(), args[0], limit)
			if err != nil {
				fatal("ask", err)
			}
			if flagFmt == "quiet" {
				for _, m := range matches {
					fmt.Println(m.ID)
				}
				return
			}
			if flagFmt == "table" {
				if len(matches) == 0 {
					fmt.Println("no matches")
					return
				}
				for i, m := range matches {
					if i > 0 {
						fmt.Println()
					}
					fmt.Printf("%d. %s (score %d)\n", i+1, m.Title, m.Score)
					if m.Question != "" {
						fmt.Printf("   Q: %s\n", m.Question)
					}
					if m.Answer != "" {
						for _, line := range strings.Split(m.Answer, "\n") {
							fmt.Printf("   %s\n", line)
						}
					}
				}
				return
			}
			output(matches, "")
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Max matches (0 uses the default of 3)")
	return cmd
}
