// cmd/pathprep/ingest.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/David-Botos/pathprep/pkg/converter"
	"github.com/David-Botos/pathprep/pkg/ingest"
)

func newIngestCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [path]",
		Short: "Convert a GeoJSON file into a GeoParquet snapshot.",
		Long: `Reads a GeoJSON FeatureCollection, checks it and writes a GeoParquet
file next to it with the same base name.

Without a path the configured <raw-dir>/<dataset>.geojson is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.RawGeoJSONPath()
			if len(args) == 1 {
				path = args[0]
			}

			conv := converter.TypeConverterConfig{
				EmptyStringAsNull: a.cfg.EmptyStringAsNull,
				NestedAsJSON:      a.cfg.NestedAsJSON,
			}
			result, err := ingest.NewIngestorWithConfig(a.logger, a.sink, conv).Run(cmd.Context(), path)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "Wrote %d rows to %s\n", result.Report.Rows, result.Output)
			for _, w := range result.Report.Warnings {
				fmt.Fprintf(a.stdout, "Warning: %s\n", w)
			}
			return nil
		},
	}
}
