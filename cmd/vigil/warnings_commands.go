package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vigil/internal/api"
	"vigil/internal/ipc"
	"vigil/internal/store"
	"vigil/internal/trigger"
	"vigil/internal/warnings"
)

func newWarningsCommand(ctx *commandContext) *cobra.Command {
	warningsCmd := &cobra.Command{
		Use:   "warnings",
		Short: "Inspect and manage the warning journal",
	}

	warningsCmd.AddCommand(newWarningsListCommand(ctx))
	warningsCmd.AddCommand(newWarningsClearCommand(ctx))

	return warningsCmd
}

func newWarningsListCommand(ctx *commandContext) *cobra.Command {
	var category string
	var status string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List surfaced warnings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, st *store.Store) error {
				var list []ipc.Warning
				if client != nil {
					resp, err := client.WarningsList(ipc.WarningsListRequest{
						Category: category,
						Status:   status,
						Limit:    limit,
					})
					if err != nil {
						return err
					}
					list = resp.Warnings
				} else {
					journaled, err := st.ListWarnings(cmd.Context(), store.WarningFilter{
						Category: trigger.Category(strings.TrimSpace(category)),
						Status:   warnings.Status(strings.TrimSpace(status)),
						Limit:    limit,
					})
					if err != nil {
						return err
					}
					list = api.FromWarnings(journaled)
				}

				if asJSON {
					return writeJSON(cmd, ipc.WarningsListResponse{Warnings: list})
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No warnings recorded")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Category", "Confidence", "Start", "End", "Status", "Sources"},
					buildWarningRows(list),
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Filter by warning category")
	cmd.Flags().StringVar(&status, "status", "", "Filter by warning status (active, merged)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum warnings to return (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit warnings as JSON")
	return cmd
}

func newWarningsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all journaled warnings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, st *store.Store) error {
				var removed int64
				if client != nil {
					resp, err := client.WarningsClear()
					if err != nil {
						return err
					}
					removed = resp.Removed
				} else {
					var err error
					removed, err = st.ClearWarnings(cmd.Context())
					if err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d warnings\n", removed)
				return nil
			})
		},
	}
}

func buildWarningRows(list []ipc.Warning) [][]string {
	rows := make([][]string, 0, len(list))
	for _, w := range list {
		rows = append(rows, []string{
			w.ID,
			w.Category,
			fmt.Sprintf("%.1f", w.Confidence),
			formatTimecode(w.StartTime),
			formatTimecode(w.EndTime),
			w.Status,
			strings.Join(w.Sources, ","),
		})
	}
	return rows
}

// formatTimecode renders a playback position in seconds as h:mm:ss.s for
// table display.
func formatTimecode(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	whole := int(seconds)
	frac := seconds - float64(whole)
	hours := whole / 3600
	minutes := (whole % 3600) / 60
	secs := float64(whole%60) + frac
	return fmt.Sprintf("%d:%02d:%04.1f", hours, minutes, secs)
}
