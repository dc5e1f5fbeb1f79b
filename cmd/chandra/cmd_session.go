package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/chandra/internal/logging"
	"github.com/danielpatrickdp/chandra/internal/psi"
)

var sessionSave bool

// #region session

var sessionCmd = &cobra.Command{
	Use:   "session <turns.jsonl|->",
	Short: "Stream turns one per line and report Ψ state as each arrives",
	Long: `Reads one {"prompt": ..., "response": ...} object per line, prints the
Ψ state of every turn as a JSON line as soon as it is scored, then prints the
integrated report over the whole session.`,
	Args: cobra.ExactArgs(1),
	RunE: runSession,
}

func init() {
	sessionCmd.Flags().BoolVar(&sessionSave, "save", false, "Persist the final report to the configured database")
}

func runSession(cmd *cobra.Command, args []string) error {
	var in io.Reader
	if args[0] == "-" {
		in = cmd.InOrStdin()
	} else {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		defer f.Close()
		in = f
	}

	a, err := cfg.NewAnalyzer(logger)
	if err != nil {
		return err
	}
	session := a.NewSession()
	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)

	var raw bytes.Buffer
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var turn psi.Turn
		if err := json.Unmarshal([]byte(text), &turn); err != nil {
			return fmt.Errorf("parse turn on line %d: %w", line, err)
		}
		raw.WriteString(text)
		raw.WriteByte('\n')

		if err := enc.Encode(session.Turn(turn.Prompt, turn.Response)); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read turns: %w", err)
	}

	report := session.Report()
	if sessionSave {
		id, err := persist(report, logging.TriggerSession, raw.Bytes())
		if err != nil {
			return err
		}
		logger.Info("report saved", zap.String("analysis_id", id), zap.Int("turns", session.Len()))
	}
	return writeJSON(out, report)
}

// #endregion session
