package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbvault/kbvault/internal/models"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative commands",
	}
	cmd.AddCommand(adminSummaryCmd())
	cmd.AddCommand(adminLogCmd())
	return cmd
}

func adminSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show entity counts",
		Run: func(cmd *cobra.Command, args []string) {
			summary, err := app.admin.Summary(context.Background())
			if err != nil {
				fatal("summary", err)
			}
			if flagFmt == "table" {
				formatTable(
					[]string{"METRIC", "VALUE"},
					[][]string{
						{"Knowledge Entries", fmt.Sprintf("%d", summary.KnowledgeEntries)},
						{"Decision Records", fmt.Sprintf("%d", summary.DecisionRecords)},
						{"Comments", fmt.Sprintf("%d", summary.Comments)},
						{"Users", fmt.Sprintf("%d", summary.Users)},
						{"Admins", fmt.Sprintf("%d", summary.Admins)},
						{"Active Users", fmt.Sprintf("%d", summary.ActiveUsers)},
						{"Corpora", fmt.Sprintf("%d", summary.Corpora)},
						{"Admin Events", fmt.Sprintf("%d", summary.AdminEvents)},
					},
				)
				return
			}
			output(summary, "")
		},
	}
}

func adminLogCmd() *cobra.Command {
	var actor, action, target, since string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Query the audit trail, newest first",
		Run: func(cmd *cobra.Command, args []string) {
			opts := models.AuditQueryOpts{
				Actor:  actor,
				Action: action,
				Target: target,
				Limit:  limit,
				Offset: offset,
			}
			if since != "" {
				ts, err := parseSince(since)
				if err != nil {
					fatal("parse --since", err)
				}
				opts.Since = &ts
			}
			events, hasMore, err := app.audit.Events(context.Background(), opts)
			if err != nil {
				fatal("query audit trail", err)
			}
			if flagFmt == "table" {
				headers := []string{"ID", "ACTOR", "ACTION", "TARGET", "CREATED"}
				var rows [][]string
				for _, e := range events {
					rows = append(rows, []string{
						fmt.Sprintf("%d", e.ID),
						e.Actor,
						e.Action,
						e.Target,
						e.CreatedAt.Format("2006-01-02 15:04:05"),
					})
				}
				formatTable(headers, rows)
				if hasMore {
					fmt.Fprintln(os.Stderr, "(more events; raise --limit or use --offset)")
				}
				return
			}
			if flagFmt == "quiet" {
				for _, e := range events {
					fmt.Println(e.ID)
				}
				return
			}
			output(events, "")
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "Filter by actor")
	cmd.Flags().StringVar(&action, "action", "", "Filter by action")
	cmd.Flags().StringVar(&target, "target", "", "Filter by target")
	cmd.Flags().StringVar(&since, "since", "", "Only events at or after this time (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset")
	return cmd
}

// parseSince accepts an RFC 3339 timestamp or a bare date.
func parseSince(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	ts, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: since must be RFC 3339 or YYYY-MM-DD", models.ErrInvalid)
	}
	return ts, nil
}
