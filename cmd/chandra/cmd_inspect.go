package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/chandra/internal/logging"
	"github.com/danielpatrickdp/chandra/internal/psi"
	"github.com/danielpatrickdp/chandra/internal/store"
)

var (
	inspectLast int
	inspectID   string
	inspectJSON bool
)

// #region inspect

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List stored analyses or show one in detail",
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().IntVar(&inspectLast, "last", 20, "Show N most recent analyses")
	inspectCmd.Flags().StringVar(&inspectID, "id", "", "Show a single analysis with its trajectory and assessment log")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Output as JSON instead of a table")
}

func runInspect(cmd *cobra.Command, args []string) error {
	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	if inspectID != "" {
		return runDetailMode(cmd.OutOrStdout(), st, inspectID)
	}
	return runListMode(cmd.OutOrStdout(), st, inspectLast)
}

// #endregion inspect

// #region list-mode

type listRow struct {
	AnalysisID       string  `json:"analysis_id"`
	CreatedAt        string  `json:"created_at"`
	Turns            int     `json:"turns"`
	DominantLevel    int     `json:"dominant_level"`
	AvgVulnerability float64 `json:"avg_vulnerability"`
	Alignment        float64 `json:"alignment"`
	BoundaryStatus   string  `json:"boundary_status"`
	Attractor        string  `json:"attractor"`
}

func runListMode(w io.Writer, st *store.Store, last int) error {
	records, err := st.ListAnalyses(last)
	if err != nil {
		return err
	}

	rows := make([]listRow, len(records))
	for i, r := range records {
		rows[i] = listRow{
			AnalysisID:       r.AnalysisID,
			CreatedAt:        r.CreatedAt.Format("2006-01-02 15:04:05"),
			Turns:            r.Turns,
			DominantLevel:    r.DominantLevel,
			AvgVulnerability: r.AvgVulnerability,
			Alignment:        r.Alignment,
			BoundaryStatus:   r.BoundaryStatus,
			Attractor:        r.Attractor,
		}
	}
	if inspectJSON {
		return writeJSON(w, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "no analyses found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tTURNS\tLEVEL\tVULN\tALIGN\tBOUNDARY\tATTRACTOR")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\tL%d\t%.3f\t%.3f\t%s\t%s\n",
			shortID(r.AnalysisID), r.CreatedAt, r.Turns, r.DominantLevel,
			r.AvgVulnerability, r.Alignment, r.BoundaryStatus, r.Attractor)
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion list-mode

// #region detail-mode

type detailView struct {
	listRow
	Health      string                    `json:"health"`
	Trajectory  []psi.State               `json:"trajectory"`
	Assessments []logging.AssessmentEntry `json:"assessments"`
}

func runDetailMode(w io.Writer, st *store.Store, id string) error {
	rec, err := st.GetAnalysis(id)
	if err != nil {
		return err
	}
	trajectory, err := st.Trajectory(id)
	if err != nil {
		return err
	}
	assessments, err := logging.ListAssessments(st.DB(), id)
	if err != nil {
		return err
	}

	view := detailView{
		listRow: listRow{
			AnalysisID:       rec.AnalysisID,
			CreatedAt:        rec.CreatedAt.Format("2006-01-02 15:04:05"),
			Turns:            rec.Turns,
			DominantLevel:    rec.DominantLevel,
			AvgVulnerability: rec.AvgVulnerability,
			Alignment:        rec.Alignment,
			BoundaryStatus:   rec.BoundaryStatus,
			Attractor:        rec.Attractor,
		},
		Health:      rec.Health,
		Trajectory:  trajectory,
		Assessments: assessments,
	}
	if inspectJSON {
		return writeJSON(w, view)
	}

	fmt.Fprintf(w, "Analysis %s (%s)\n", view.AnalysisID, view.CreatedAt)
	fmt.Fprintf(w, "  turns=%d level=L%d vuln=%.3f align=%.3f\n",
		view.Turns, view.DominantLevel, view.AvgVulnerability, view.Alignment)
	fmt.Fprintf(w, "  boundary=%s attractor=%s\n", view.BoundaryStatus, view.Attractor)
	fmt.Fprintf(w, "  health=%s\n", view.Health)

	fmt.Fprintln(w, "\nTrajectory:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  TURN\tλ\tκ\tθ\tε")
	for _, s := range trajectory {
		fmt.Fprintf(tw, "  %d\t%.3f\t%.3f\t%.3f\t%.3f\n", s.Turn, s.Lambda, s.Kappa, s.Theta, s.Epsilon)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nAssessments:")
	for _, a := range assessments {
		fmt.Fprintf(w, "  [%s] %s %s\n", a.TriggerType, a.CreatedAt.Format("2006-01-02 15:04:05"), a.Status)
		for _, adv := range a.Advisories {
			fmt.Fprintf(w, "    - %s\n", adv)
		}
	}
	return nil
}

// #endregion detail-mode
