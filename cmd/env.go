package main

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/covidsync/internal/etl"
	"github.com/sells-group/covidsync/internal/fetcher"
	"github.com/sells-group/covidsync/internal/model"
	"github.com/sells-group/covidsync/internal/source"
	"github.com/sells-group/covidsync/internal/store"
)

// pipelineEnv holds the shared dependencies a pipeline command needs.
type pipelineEnv struct {
	Engine *etl.Engine
	Store  store.Store
}

// Close releases the store.
func (e *pipelineEnv) Close() {
	if e.Store != nil {
		e.Store.Close() //nolint:errcheck
	}
}

// initPipeline validates config for mode and builds the fetcher, registry,
// store and engine.
func initPipeline(ctx context.Context, mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	reg, err := source.NewRegistry(cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:   cfg.Fetch.UserAgent,
		Timeout:     time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxAttempts: max(cfg.Fetch.MaxRetries, 1),
		RatePerSec:  cfg.Fetch.RatePerSec,
	})

	return &pipelineEnv{
		Engine: etl.NewEngine(f, st, reg, cfg.Data.Dir),
		Store:  st,
	}, nil
}

// addRunFlags registers the variant and date-window flags shared by the
// pipeline commands.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("variant", "", "comma-separated variants to run (global,us); default all")
	cmd.Flags().String("start", "", "first date to download, YYYY-MM-DD (default: variant start)")
	cmd.Flags().String("end", "", "last date to download, YYYY-MM-DD (default: today)")
	cmd.Flags().Bool("skip-existing", false, "only download dates missing from the raw store")
}

// parseRunOpts extracts etl.RunOpts from the cobra command flags.
func parseRunOpts(cmd *cobra.Command) (etl.RunOpts, error) {
	var opts etl.RunOpts

	if v, _ := cmd.Flags().GetString("variant"); v != "" {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				opts.Variants = append(opts.Variants, name)
			}
		}
	}

	for flag, dst := range map[string]**model.Day{"start": &opts.Start, "end": &opts.End} {
		s, _ := cmd.Flags().GetString(flag)
		if s == "" {
			continue
		}
		d, err := model.ParseDay(s)
		if err != nil {
			return etl.RunOpts{}, eris.Wrapf(err, "invalid --%s", flag)
		}
		*dst = &d
	}
	if opts.Start != nil && opts.End != nil && opts.End.Before(opts.Start.Time) {
		return etl.RunOpts{}, eris.Errorf("--end %s is before --start %s", opts.End, opts.Start)
	}

	if cmd.Flags().Lookup("skip-existing") != nil {
		opts.SkipExisting, _ = cmd.Flags().GetBool("skip-existing")
	}
	return opts, nil
}
