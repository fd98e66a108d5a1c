package main

import (
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export processed series to a spreadsheet or the database",
	Long: `Export a variant's processed files.

--format xlsx writes a workbook with a per-entity sheet and a totals sheet.
--format db replaces the variant's rows in the configured store.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, _ := cmd.Flags().GetString("format")
		name, _ := cmd.Flags().GetString("variant")
		out, _ := cmd.Flags().GetString("out")

		mode := "pipeline"
		switch format {
		case "xlsx":
		case "db":
			if cfg.Store.Driver == "postgres" {
				mode = "db"
			}
			if cfg.Store.Driver == "none" || cfg.Store.Driver == "" {
				return eris.New("export: --format db needs store.driver sqlite or postgres")
			}
		default:
			return eris.Errorf("export: unknown format %q (valid: xlsx, db)", format)
		}

		env, err := initPipeline(ctx, mode)
		if err != nil {
			return err
		}
		defer env.Close()

		v, err := env.Engine.Registry().Get(name)
		if err != nil {
			return err
		}

		if format == "xlsx" {
			if out == "" {
				out = filepath.Join(cfg.Data.Dir, "covid_"+v.Name+".xlsx")
			}
			if err := env.Engine.ExportXLSX(v, out); err != nil {
				return eris.Wrap(err, "export xlsx")
			}
			fmt.Printf("Wrote %s\n", out)
			return nil
		}

		series, reports, err := env.Engine.ExportDB(ctx, v)
		if err != nil {
			return eris.Wrap(err, "export db")
		}
		fmt.Printf("Loaded %d series rows and %d report rows for %s\n", series, reports, v.Name)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("format", "xlsx", "export format: xlsx or db")
	exportCmd.Flags().String("variant", "us", "variant to export")
	exportCmd.Flags().String("out", "", "xlsx output path (default <data.dir>/covid_<variant>.xlsx)")
	rootCmd.AddCommand(exportCmd)
}
