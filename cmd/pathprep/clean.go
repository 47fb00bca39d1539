// cmd/pathprep/clean.go
package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/pathprep/pkg/audit"
	"github.com/David-Botos/pathprep/pkg/cleaner"
)

func newCleanCommand(a *app) *cobra.Command {
	var (
		in, out string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean the raw GeoParquet snapshot into the public table.",
		Long: `Loads the raw snapshot, drops redundant columns, derives the path type,
renames columns, discards rows without a type or year, canonicalizes years,
normalizes text and writes the fixed seven column table.

Defaults read <raw-dir>/<dataset>.parquet and write
<processed-dir>/<dataset>.parquet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if in == "" {
				in = a.cfg.RawParquetPath()
			}
			if out == "" {
				out = a.cfg.ProcessedParquetPath()
			}

			var store audit.Store = audit.NopStore{}
			if a.cfg.AuditEnabled {
				pg, err := audit.NewPostgresStore(cmd.Context(), a.cfg.AuditDB, a.logger)
				if err != nil {
					return errors.Wrap(err, "open audit store")
				}
				store = pg
			}
			defer func() {
				if err := store.Close(); err != nil {
					a.logger.Warn("Failed to close audit store", zap.Error(err))
				}
			}()

			dc, err := cleaner.NewDataCleaner(a.cfg.Dataset, a.logger, a.sink, store)
			if err != nil {
				return err
			}

			metrics, err := dc.Run(cmd.Context(), in, out)
			if err != nil {
				return err
			}

			if asJSON {
				data, err := metrics.ToJSON()
				if err != nil {
					return errors.Wrap(err, "encode run metrics")
				}
				fmt.Fprintf(a.stdout, "%s\n", data)
				return nil
			}
			fmt.Fprint(a.stdout, metrics.GenerateReport())
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "Raw GeoParquet snapshot to clean.")
	cmd.Flags().StringVar(&out, "out", "", "Destination of the cleaned table.")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run metrics as JSON instead of a report.")
	return cmd
}
