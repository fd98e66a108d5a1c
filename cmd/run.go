package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/covidsync/internal/model"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: download, normalize, aggregate, save",
	Long: `Run the full pipeline for each selected variant and record it in the run log.

A variant fails only when none of its snapshots could be processed; the
remaining variants still run.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, "pipeline")
		if err != nil {
			return err
		}
		defer env.Close()

		opts, err := parseRunOpts(cmd)
		if err != nil {
			return err
		}
		opts.SkipDownload, _ = cmd.Flags().GetBool("skip-download")

		zap.L().Info("starting pipeline",
			zap.String("command", "run"),
			zap.Strings("variants", opts.Variants),
			zap.Bool("skip_download", opts.SkipDownload),
		)

		runs, err := env.Engine.Run(ctx, opts)
		formatRunsList(os.Stdout, runs)
		return err
	},
}

func init() {
	addRunFlags(runCmd)
	runCmd.Flags().Bool("skip-download", false, "process the raw store without downloading")
	rootCmd.AddCommand(runCmd)
}

// formatRunsList writes a tabular list of runs to out.
func formatRunsList(out io.Writer, runs []*model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tVARIANT\tSTATUS\tSTARTED\tDURATION\tDOWNLOADED\tMISSING\tPROCESSED\tROWS\tERROR")
	_, _ = fmt.Fprintln(w, "--\t-------\t------\t-------\t--------\t----------\t-------\t---------\t----\t-----")

	for _, r := range runs {
		dur := ""
		if r.CompletedAt != nil {
			dur = r.CompletedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		var res model.RunResult
		if r.Result != nil {
			res = *r.Result
		}
		errMsg := r.Error
		if len(errMsg) > 40 {
			errMsg = errMsg[:37] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			truncateID(r.ID),
			r.Variant,
			r.Status,
			r.StartedAt.Format("2006-01-02 15:04"),
			dur,
			res.FilesDownloaded,
			res.FilesMissing,
			res.FilesProcessed,
			res.RowsNormalized,
			errMsg,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
