package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vigil/internal/ipc"
)

func newFeedbackCommand(ctx *commandContext) *cobra.Command {
	var category string
	var feedbackType string
	var outcome string
	var warningID string
	var confidence float64
	var submittedBy string

	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Submit a viewer verdict on a surfaced warning",
		RunE: func(cmd *cobra.Command, args []string) error {
			category = strings.TrimSpace(category)
			feedbackType = strings.TrimSpace(feedbackType)
			if category == "" {
				return errors.New("--category is required")
			}
			if feedbackType == "" {
				return errors.New("--type is required (confirm, dismiss, report)")
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Feedback(ipc.FeedbackRequest{
					Category:    category,
					Type:        feedbackType,
					Outcome:     strings.TrimSpace(outcome),
					WarningID:   strings.TrimSpace(warningID),
					Confidence:  confidence,
					SubmittedBy: strings.TrimSpace(submittedBy),
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Feedback applied: %s\n", yesNo(resp.Applied))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Warning category the verdict applies to")
	cmd.Flags().StringVar(&feedbackType, "type", "", "Verdict type: confirm, dismiss, or report")
	cmd.Flags().StringVar(&outcome, "outcome", "", "Override the type-derived outcome")
	cmd.Flags().StringVar(&warningID, "warning-id", "", "Warning the verdict refers to")
	cmd.Flags().Float64Var(&confidence, "confidence", 0, "Detection confidence the verdict was shown with")
	cmd.Flags().StringVar(&submittedBy, "by", "", "Submitter identity recorded in the feedback journal")
	return cmd
}
