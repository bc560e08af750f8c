package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"vigil/internal/api"
	"vigil/internal/ipc"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show pipeline telemetry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				feedback, err := client.FeedbackStats()
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd, struct {
						Engine   ipc.EngineStatus `json:"engine"`
						Feedback map[string]int   `json:"feedback,omitempty"`
					}{Engine: status.Engine, Feedback: feedback.Counts})
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				engine := status.Engine

				printMetricSection(cmd, "Pipeline", [][]string{
					{"Events processed", fmt.Sprintf("%d", engine.EventsProcessed)},
					{"Warnings surfaced", fmt.Sprintf("%d", engine.WarningsSurfaced)},
					{"Scenes observed", fmt.Sprintf("%d", engine.ScenesObserved)},
					{"Feedback applied", fmt.Sprintf("%d", engine.FeedbackApplied)},
					{"Active shards", fmt.Sprintf("%d", engine.ActiveShards)},
					{"Scene windows", fmt.Sprintf("%d", engine.SceneCount)},
					{"Last event time", formatTimecode(engine.LastEventTime)},
				}, colorize)

				printMetricSection(cmd, "Routing", buildRouterRows(engine.Router), colorize)

				printMetricSection(cmd, "Validation", [][]string{
					{"Validated", fmt.Sprintf("%d", engine.Validator.Validated)},
					{"Passed", fmt.Sprintf("%d", engine.Validator.Passed)},
					{"Rejected", fmt.Sprintf("%d", engine.Validator.Rejected)},
					{"Hard rejects", fmt.Sprintf("%d", engine.Validator.HardRejects)},
					{"Penalized", fmt.Sprintf("%d", engine.Validator.Penalized)},
				}, colorize)

				printMetricSection(cmd, "Temporal", [][]string{
					{"Regularized", fmt.Sprintf("%d", engine.Temporal.Regularized)},
					{"Boosted", fmt.Sprintf("%d", engine.Temporal.Boosted)},
					{"Penalized", fmt.Sprintf("%d", engine.Temporal.Penalized)},
					{"Scene adjusted", fmt.Sprintf("%d", engine.Temporal.SceneAdjusted)},
					{"Surfaced", fmt.Sprintf("%d", engine.Temporal.Surfaced)},
					{"Suppressed", fmt.Sprintf("%d", engine.Temporal.Suppressed)},
					{"Pattern overrides", fmt.Sprintf("%d", engine.Temporal.Overrides)},
				}, colorize)

				printMetricSection(cmd, "Deduplication", [][]string{
					{"Processed", fmt.Sprintf("%d", engine.Dedup.Processed)},
					{"Emitted", fmt.Sprintf("%d", engine.Dedup.Emitted)},
					{"Merged emitted", fmt.Sprintf("%d", engine.Dedup.MergedEmitted)},
					{"Duplicate IDs", fmt.Sprintf("%d", engine.Dedup.DuplicateIDs)},
					{"Rate limited", fmt.Sprintf("%d", engine.Dedup.RateLimited)},
					{"Cooldown suppressed", fmt.Sprintf("%d", engine.Dedup.CooldownSuppressed)},
					{"Group suppressed", fmt.Sprintf("%d", engine.Dedup.GroupSuppressed)},
					{"Active groups", fmt.Sprintf("%d", engine.Dedup.ActiveGroups)},
				}, colorize)

				if rows := buildAttentionRows(engine.Attention); len(rows) > 0 {
					for _, line := range renderSectionHeader("Attention", colorize) {
						fmt.Fprintln(stdout, line)
					}
					table := renderTable(
						[]string{"Category", "Visual", "Audio", "Text", "Detections", "Correct", "Incorrect"},
						rows,
						[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
					)
					fmt.Fprintln(stdout, table)
				}

				if rows := buildFeedbackRows(feedback.Counts); len(rows) > 0 {
					printMetricSection(cmd, "Feedback", rows, colorize)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit telemetry as JSON")
	return cmd
}

func printMetricSection(cmd *cobra.Command, title string, rows [][]string, colorize bool) {
	stdout := cmd.OutOrStdout()
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(stdout, line)
	}
	table := renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight})
	fmt.Fprintln(stdout, table)
}

func buildRouterRows(router api.RouterStats) [][]string {
	rows := [][]string{
		{"Routed", fmt.Sprintf("%d", router.Routed)},
		{"Fallbacks", fmt.Sprintf("%d", router.Fallbacks)},
	}
	routes := make([]string, 0, len(router.ByRoute))
	for route := range router.ByRoute {
		routes = append(routes, route)
	}
	sort.Strings(routes)
	for _, route := range routes {
		rows = append(rows, []string{"route " + route, fmt.Sprintf("%d", router.ByRoute[route])})
	}
	return rows
}

func buildAttentionRows(states map[string]api.AttentionState) [][]string {
	if len(states) == 0 {
		return nil
	}
	categories := make([]string, 0, len(states))
	for category := range states {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	rows := make([][]string, 0, len(categories))
	for _, category := range categories {
		state := states[category]
		rows = append(rows, []string{
			category,
			fmt.Sprintf("%.3f", state.Learned.Visual),
			fmt.Sprintf("%.3f", state.Learned.Audio),
			fmt.Sprintf("%.3f", state.Learned.Text),
			fmt.Sprintf("%d", state.TotalDetections),
			fmt.Sprintf("%d", state.CorrectDetections),
			fmt.Sprintf("%d", state.IncorrectDetections),
		})
	}
	return rows
}

func buildFeedbackRows(counts map[string]int) [][]string {
	if len(counts) == 0 {
		return nil
	}
	outcomes := make([]string, 0, len(counts))
	for outcome := range counts {
		outcomes = append(outcomes, outcome)
	}
	sort.Strings(outcomes)

	rows := make([][]string, 0, len(outcomes))
	for _, outcome := range outcomes {
		rows = append(rows, []string{outcome, fmt.Sprintf("%d", counts[outcome])})
	}
	return rows
}
