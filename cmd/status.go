package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/covidsync/internal/model"
	"github.com/sells-group/covidsync/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Show recent pipeline runs, or one run in full",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if len(args) == 1 {
			run, err := st.GetRun(ctx, args[0])
			if err != nil {
				return eris.Wrap(err, "status")
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		}

		variant, _ := cmd.Flags().GetString("variant")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		stats, _ := cmd.Flags().GetBool("stats")
		if stats {
			limit = 10000
		}

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Variant: variant,
			Status:  model.RunStatus(status),
			Limit:   limit,
		})
		if err != nil {
			return eris.Wrap(err, "status")
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		if stats {
			formatRunStats(os.Stdout, computeRunStats(runs))
			return nil
		}

		ptrs := make([]*model.Run, len(runs))
		for i := range runs {
			ptrs[i] = &runs[i]
		}
		formatRunsList(os.Stdout, ptrs)
		return nil
	},
}

func init() {
	statusCmd.Flags().String("variant", "", "filter by variant")
	statusCmd.Flags().String("status", "", "filter by run status (running, complete, failed)")
	statusCmd.Flags().Int("limit", 20, "max number of runs to display")
	statusCmd.Flags().Bool("stats", false, "print aggregate statistics instead of a list")
	rootCmd.AddCommand(statusCmd)
}

// openStore opens the configured run store without building a pipeline.
func openStore(ctx context.Context) (store.Store, error) {
	if cfg.Store.Driver == "none" || cfg.Store.Driver == "" {
		return nil, eris.New("status: store.driver is none; no run log is kept")
	}
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	return st, nil
}

// runStats holds aggregate statistics computed from a set of runs.
type runStats struct {
	Total      int
	Complete   int
	Failed     int
	Running    int
	Downloaded int
	Missing    int
	AvgDurSecs float64
	LastOK     map[string]time.Time
}

// computeRunStats computes aggregate statistics from a list of runs.
func computeRunStats(runs []model.Run) runStats {
	s := runStats{Total: len(runs), LastOK: make(map[string]time.Time)}

	var totalDur time.Duration
	var durCount int

	for _, r := range runs {
		switch r.Status {
		case model.RunStatusComplete:
			s.Complete++
			if r.CompletedAt != nil {
				totalDur += r.CompletedAt.Sub(r.StartedAt)
				durCount++
				if r.CompletedAt.After(s.LastOK[r.Variant]) {
					s.LastOK[r.Variant] = *r.CompletedAt
				}
			}
		case model.RunStatusFailed:
			s.Failed++
		default:
			s.Running++
		}
		if r.Result != nil {
			s.Downloaded += r.Result.FilesDownloaded
			s.Missing += r.Result.FilesMissing
		}
	}

	if durCount > 0 {
		s.AvgDurSecs = totalDur.Seconds() / float64(durCount)
	}
	return s
}

// formatRunStats writes aggregate stats to out.
func formatRunStats(out io.Writer, s runStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total runs:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Complete:\t%d\n", s.Complete)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.Failed)
	_, _ = fmt.Fprintf(w, "Running:\t%d\n", s.Running)
	_, _ = fmt.Fprintf(w, "Files downloaded:\t%d\n", s.Downloaded)
	_, _ = fmt.Fprintf(w, "Files missing:\t%d\n", s.Missing)
	if s.AvgDurSecs > 0 {
		_, _ = fmt.Fprintf(w, "Avg duration:\t%.1fs\n", s.AvgDurSecs)
	}
	for _, v := range []string{"global", "us"} {
		if t, ok := s.LastOK[v]; ok {
			_, _ = fmt.Fprintf(w, "Last success (%s):\t%s\n", v, t.Format("2006-01-02 15:04"))
		}
	}
	_ = w.Flush()
}
