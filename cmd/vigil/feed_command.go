package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"vigil/internal/api"
	"vigil/internal/engine"
	"vigil/internal/ipc"
	"vigil/internal/logging"
	"vigil/internal/store"
)

// feedLine is one JSONL replay record. Lines carrying a category are
// detection events; lines carrying only a scene type are scene
// observations.
type feedLine struct {
	Category  string                `json:"category"`
	Timestamp float64               `json:"timestamp"`
	Visual    *engine.SignalPayload `json:"visual,omitempty"`
	Audio     *engine.SignalPayload `json:"audio,omitempty"`
	Text      *engine.SignalPayload `json:"text,omitempty"`
	Subtitle  string                `json:"subtitle,omitempty"`
	Scale     string                `json:"scale,omitempty"`

	ID    string  `json:"id,omitempty"`
	Type  string  `json:"type,omitempty"`
	Start float64 `json:"start,omitempty"`
	End   float64 `json:"end,omitempty"`
}

type feedSummary struct {
	Events     int           `json:"events"`
	Scenes     int           `json:"scenes"`
	Suppressed int           `json:"suppressed"`
	Warnings   []ipc.Warning `json:"warnings,omitempty"`
}

func newFeedCommand(ctx *commandContext) *cobra.Command {
	var offline bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "feed <events.jsonl>",
		Short: "Replay analyzer events through the pipeline",
		Long: "Feed reads newline-delimited JSON analyzer events and runs each through\n" +
			"the detection pipeline. Lines with a \"category\" field are detection\n" +
			"events; lines with a \"type\" field are scene observations. By default\n" +
			"events go to the running daemon over IPC; --offline replays through an\n" +
			"in-process engine against the configured journal instead.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, closeFn, err := openFeedSource(args[0])
			if err != nil {
				return err
			}
			defer closeFn()

			var summary feedSummary
			if offline {
				summary, err = feedOffline(cmd, ctx, reader, asJSON)
			} else {
				summary, err = feedViaDaemon(cmd, ctx, reader, asJSON)
			}
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, summary)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Processed %d events and %d scenes, surfaced %d warnings (%d suppressed or held)\n",
				summary.Events, summary.Scenes, len(summary.Warnings), summary.Suppressed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Replay through an in-process engine instead of the daemon")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the replay summary as JSON")
	return cmd
}

func openFeedSource(arg string) (io.Reader, func() error, error) {
	if arg == "-" {
		return os.Stdin, func() error { return nil }, nil
	}
	file, err := os.Open(arg)
	if err != nil {
		return nil, nil, fmt.Errorf("open events file: %w", err)
	}
	return file, file.Close, nil
}

func feedViaDaemon(cmd *cobra.Command, ctx *commandContext, reader io.Reader, quiet bool) (feedSummary, error) {
	var summary feedSummary
	err := ctx.withClient(func(client *ipc.Client) error {
		err := eachFeedLine(reader, func(lineNo int, line feedLine) error {
			if line.Category != "" {
				summary.Events++
				resp, err := client.Ingest(detectionFromLine(line))
				if err != nil {
					return fmt.Errorf("line %d: %w", lineNo, err)
				}
				if !resp.Accepted && resp.Warning == nil {
					summary.Suppressed++
				}
				if resp.Warning != nil {
					summary.Warnings = append(summary.Warnings, *resp.Warning)
					if !quiet {
						printSurfacedWarning(cmd, *resp.Warning)
					}
				}
				return nil
			}
			summary.Scenes++
			if _, err := client.Scene(ipc.SceneRequest{ID: line.ID, Type: line.Type, Start: line.Start, End: line.End}); err != nil {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		// Flush dedup holds accumulated during the replay.
		resp, err := client.Sweep()
		if err != nil {
			return err
		}
		for _, w := range resp.Warnings {
			summary.Warnings = append(summary.Warnings, w)
			if !quiet {
				printSurfacedWarning(cmd, w)
			}
		}
		return nil
	})
	return summary, err
}

func feedOffline(cmd *cobra.Command, ctx *commandContext, reader io.Reader, quiet bool) (feedSummary, error) {
	var summary feedSummary

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return summary, err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return summary, fmt.Errorf("open warning store: %w", err)
	}
	defer st.Close()

	eng, err := engine.New(cfg, st, logging.NewNop())
	if err != nil {
		return summary, err
	}

	runCtx := cmd.Context()
	err = eachFeedLine(reader, func(lineNo int, line feedLine) error {
		if line.Category != "" {
			summary.Events++
			result, procErr := eng.Process(runCtx, detectionFromLine(line))
			if procErr != nil {
				return fmt.Errorf("line %d: %w", lineNo, procErr)
			}
			if result.Warning == nil {
				summary.Suppressed++
			} else {
				dto := api.FromWarning(*result.Warning)
				summary.Warnings = append(summary.Warnings, dto)
				if !quiet {
					printSurfacedWarning(cmd, dto)
				}
			}
			return nil
		}
		summary.Scenes++
		if sceneErr := eng.ObserveScene(runCtx, engine.SceneEvent{ID: line.ID, Type: line.Type, Start: line.Start, End: line.End}); sceneErr != nil {
			return fmt.Errorf("line %d: %w", lineNo, sceneErr)
		}
		return nil
	})
	if err != nil {
		return summary, err
	}

	for _, w := range eng.SweepNow(runCtx) {
		dto := api.FromWarning(w)
		summary.Warnings = append(summary.Warnings, dto)
		if !quiet {
			printSurfacedWarning(cmd, dto)
		}
	}
	return summary, nil
}

func eachFeedLine(reader io.Reader, fn func(int, feedLine) error) error {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var line feedLine
		if err := json.Unmarshal([]byte(text), &line); err != nil {
			return fmt.Errorf("line %d: parse event: %w", lineNo, err)
		}
		if line.Category == "" && line.Type == "" {
			return fmt.Errorf("line %d: event needs a category or a scene type", lineNo)
		}
		if err := fn(lineNo, line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read events: %w", err)
	}
	return nil
}

func detectionFromLine(line feedLine) engine.DetectionEvent {
	return engine.DetectionEvent{
		Category:  line.Category,
		Timestamp: line.Timestamp,
		Visual:    line.Visual,
		Audio:     line.Audio,
		Text:      line.Text,
		Subtitle:  line.Subtitle,
		Scale:     line.Scale,
	}
}

func printSurfacedWarning(cmd *cobra.Command, w ipc.Warning) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %.1f  %s-%s\n",
		w.ID, w.Category, w.Confidence, formatTimecode(w.StartTime), formatTimecode(w.EndTime))
}
