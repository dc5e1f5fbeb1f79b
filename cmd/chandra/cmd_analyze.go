package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/chandra/internal/analysis"
	"github.com/danielpatrickdp/chandra/internal/logging"
	"github.com/danielpatrickdp/chandra/internal/server"
	"github.com/danielpatrickdp/chandra/internal/store"
)

var (
	saveReport bool
	remoteAddr string
	timeout    time.Duration

	transcriptFile string
	responses      []string
)

// #region analyze

var analyzeCmd = &cobra.Command{
	Use:   "analyze <conversation.json|->",
	Short: "Run the full pipeline over a conversation file",
	Long: `Reads {"turns": [{"prompt": ..., "response": ...}], "transcript": ...}
and prints the integrated report as JSON. An absent transcript is rebuilt
from the turns.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&saveReport, "save", false, "Persist the report to the configured database")
	analyzeCmd.Flags().StringVar(&remoteAddr, "remote", "", "Analyze on a running chandra server at this address")
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Remote call timeout")

	diagnoseCmd.Flags().StringVarP(&transcriptFile, "file", "f", "", "Read the transcript from a file instead of arguments")
	diagnoseCmd.Flags().StringArrayVarP(&responses, "response", "r", nil, "AI response to score for symbolic pressure (repeatable)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if remoteAddr != "" && saveReport {
		return fmt.Errorf("--save cannot be combined with --remote: the server persists its own reports")
	}
	raw, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	var req server.AnalyzeRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("parse conversation %s: %w", args[0], err)
	}

	var (
		report analysis.Report
		id     string
	)
	if remoteAddr != "" {
		report, id, err = analyzeRemote(cmd.Context(), req)
		if err != nil {
			return err
		}
	} else {
		a, err := cfg.NewAnalyzer(logger)
		if err != nil {
			return err
		}
		report = a.Analyze(req.Turns, req.Transcript)
		if saveReport {
			if id, err = persist(report, logging.TriggerAnalyze, raw); err != nil {
				return err
			}
		}
	}

	if id != "" {
		logger.Info("report saved", zap.String("analysis_id", id))
	}
	return writeJSON(cmd.OutOrStdout(), report)
}

func analyzeRemote(ctx context.Context, req server.AnalyzeRequest) (analysis.Report, string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := server.NewClient(remoteAddr)
	if err != nil {
		return analysis.Report{}, "", fmt.Errorf("dial %s: %w", remoteAddr, err)
	}
	defer client.Close()
	return client.Analyze(ctx, req.Turns, req.Transcript)
}

// persist saves the report and its assessment log entry.
func persist(report analysis.Report, trigger string, input []byte) (string, error) {
	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		return "", fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	rec, err := st.SaveReport(report)
	if err != nil {
		return "", err
	}
	entry := logging.EntryFromReport(rec.AnalysisID, trigger, logging.HashContext(input), report)
	if err := logging.LogAssessment(st.DB(), entry); err != nil {
		logger.Warn("assessment log failed", zap.String("analysis_id", rec.AnalysisID), zap.Error(err))
	}
	return rec.AnalysisID, nil
}

// #endregion analyze

// #region diagnose

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose [transcript...]",
	Short: "Score a transcript on the CHN hierarchy without Ψ telemetry",
	Long: `Scores the transcript on the CHN hierarchy. Responses given with
--response are scored for symbolic pressure and discount overall health.`,
	RunE:  runDiagnose,
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	transcript := strings.Join(args, " ")
	if transcriptFile != "" {
		raw, err := readInput(cmd, transcriptFile)
		if err != nil {
			return err
		}
		transcript = string(raw)
	}
	if strings.TrimSpace(transcript) == "" {
		return fmt.Errorf("no transcript given")
	}

	a, err := cfg.NewAnalyzer(logger)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), a.Diagnose(transcript, responses))
}

// #endregion diagnose

// #region io

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion io
