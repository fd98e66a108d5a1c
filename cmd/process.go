package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Normalize and aggregate the raw snapshots already on disk",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, "pipeline")
		if err != nil {
			return err
		}
		defer env.Close()

		names, _ := cmd.Flags().GetStringSlice("variant")
		variants, err := env.Engine.Registry().Select(names)
		if err != nil {
			return err
		}

		for _, v := range variants {
			res, err := env.Engine.Process(ctx, v)
			if err != nil {
				return eris.Wrapf(err, "process %s", v.Name)
			}
			fmt.Printf("%s: %d files (%d skipped), %d rows, %d entities -> %s\n",
				v.Name, res.Load.Processed, res.Load.Skipped, res.Load.Rows, res.Entities,
				env.Engine.Processed().SeriesPath(v))
		}
		return nil
	},
}

func init() {
	processCmd.Flags().StringSlice("variant", nil, "variants to process (global,us); default all")
	rootCmd.AddCommand(processCmd)
}
