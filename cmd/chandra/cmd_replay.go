package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/chandra/internal/analysis"
	"github.com/danielpatrickdp/chandra/internal/logging"
	"github.com/danielpatrickdp/chandra/internal/replay"
)

var (
	fixturePath string
	replayJSON  bool
	replaySave  bool
)

// #region replay

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a fixture of recorded conversations and compare verdicts",
	RunE:  runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&fixturePath, "fixture", "", "Path to replay fixture JSON (required)")
	replayCmd.Flags().BoolVar(&replayJSON, "json", false, "Output results as JSON")
	replayCmd.Flags().BoolVar(&replaySave, "save", false, "Persist every replayed report")
	_ = replayCmd.MarkFlagRequired("fixture")
}

type replayRow struct {
	Name       string   `json:"name"`
	Action     string   `json:"action"`
	Mismatches []string `json:"mismatches,omitempty"`
	AnalysisID string   `json:"analysis_id,omitempty"`
}

func runReplay(cmd *cobra.Command, args []string) error {
	fixture, err := replay.LoadFixture(fixturePath)
	if err != nil {
		return err
	}
	logger.Info("replaying fixture",
		zap.String("description", fixture.Description),
		zap.Int("cases", len(fixture.Cases)))

	config, err := fixture.Config.ToReplayConfig()
	if err != nil {
		return fmt.Errorf("%s: %w", fixturePath, err)
	}
	results := replay.Replay(fixture.ToCases(), config, analysis.WithLogger(logger))
	summary := replay.Summarize(results)

	rows := make([]replayRow, len(results))
	for i, r := range results {
		rows[i] = replayRow{Name: r.Name, Action: r.Action, Mismatches: r.Mismatches}
		if !replaySave {
			continue
		}
		input, err := json.Marshal(fixture.Cases[i])
		if err != nil {
			return fmt.Errorf("encode case %s: %w", r.Name, err)
		}
		if rows[i].AnalysisID, err = persist(r.Report, logging.TriggerReplay, input); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if replayJSON {
		if err := writeJSON(out, struct {
			Results []replayRow          `json:"results"`
			Summary replay.ReplaySummary `json:"summary"`
		}{rows, summary}); err != nil {
			return err
		}
	} else {
		for _, r := range rows {
			fmt.Fprintf(out, "%-8s %s\n", strings.ToUpper(r.Action), r.Name)
			for _, m := range r.Mismatches {
				fmt.Fprintf(out, "         %s\n", m)
			}
		}
		fmt.Fprintf(out, "\n%d cases: %d match, %d mismatch, %d invalid\n",
			summary.TotalCases, summary.Matches, summary.Mismatches, summary.Invalid)
	}

	if summary.Mismatches+summary.Invalid > 0 {
		return fmt.Errorf("replay: %d of %d cases failed", summary.Mismatches+summary.Invalid, summary.TotalCases)
	}
	return nil
}

// #endregion replay
