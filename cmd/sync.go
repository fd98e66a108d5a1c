package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/covidsync/internal/acquire"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download raw daily report snapshots",
	Long: `Download one CSV per calendar day into <data.dir>/raw/<variant>/.

Dates the source has not published are skipped silently. Use --skip-existing
to fetch only the dates missing from the raw store.`,
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
		variants, err := env.Engine.Registry().Select(opts.Variants)
		if err != nil {
			return err
		}

		results := make(map[string]*acquire.Result, len(variants))
		var names []string
		for _, v := range variants {
			res, err := env.Engine.Sync(ctx, v, opts)
			if err != nil {
				return eris.Wrapf(err, "sync %s", v.Name)
			}
			results[v.Name] = res
			names = append(names, v.Name)
		}

		formatSyncResults(os.Stdout, names, results)
		return nil
	},
}

func init() {
	addRunFlags(syncCmd)
	rootCmd.AddCommand(syncCmd)
}

// formatSyncResults writes one row of download counters per variant.
func formatSyncResults(out io.Writer, names []string, results map[string]*acquire.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "VARIANT\tREQUESTED\tDOWNLOADED\tEXISTING\tMISSING\tFAILED")
	for _, name := range names {
		r := results[name]
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\n",
			name, r.Requested, r.Downloaded, r.Existing, r.Missing, r.Failed)
	}
	_ = w.Flush()
}
