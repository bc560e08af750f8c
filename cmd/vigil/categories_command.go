package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vigil/internal/trigger"
)

func newCategoriesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:         "categories",
		Short:       "Show the category routing table",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := trigger.LoadTable()
			if err != nil {
				return fmt.Errorf("load category table: %w", err)
			}

			if asJSON {
				return writeJSON(cmd, buildCategoryPayload(table))
			}

			rows := make([][]string, 0, table.Len())
			for _, category := range table.Categories() {
				cfg, ok := table.Lookup(category)
				if !ok {
					continue
				}
				rows = append(rows, []string{
					string(category),
					string(cfg.Route),
					string(cfg.Validation),
					string(cfg.Pattern),
					fmt.Sprintf("%.2f", cfg.Weights.Visual),
					fmt.Sprintf("%.2f", cfg.Weights.Audio),
					fmt.Sprintf("%.2f", cfg.Weights.Text),
					strings.Join(cfg.Scenes, ","),
				})
			}

			rendered := renderTable(
				[]string{"Category", "Route", "Validation", "Pattern", "Visual", "Audio", "Text", "Scenes"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			)
			fmt.Fprint(cmd.OutOrStdout(), rendered)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the routing table as JSON")
	return cmd
}

type categoryEntry struct {
	Category   string   `json:"category"`
	Route      string   `json:"route"`
	Validation string   `json:"validation"`
	Pattern    string   `json:"pattern"`
	Visual     float64  `json:"visual"`
	Audio      float64  `json:"audio"`
	Text       float64  `json:"text"`
	Scenes     []string `json:"scenes,omitempty"`
}

func buildCategoryPayload(table *trigger.Table) []categoryEntry {
	entries := make([]categoryEntry, 0, table.Len())
	for _, category := range table.Categories() {
		cfg, ok := table.Lookup(category)
		if !ok {
			continue
		}
		entries = append(entries, categoryEntry{
			Category:   string(category),
			Route:      string(cfg.Route),
			Validation: string(cfg.Validation),
			Pattern:    string(cfg.Pattern),
			Visual:     cfg.Weights.Visual,
			Audio:      cfg.Weights.Audio,
			Text:       cfg.Weights.Text,
			Scenes:     append([]string(nil), cfg.Scenes...),
		})
	}
	return entries
}
