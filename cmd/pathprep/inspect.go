// cmd/pathprep/inspect.go
package main

import (
	"encoding/json"
	"fmt"
	"io/fs"

	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/David-Botos/pathprep/pkg/diag"
	"github.com/David-Botos/pathprep/pkg/failure"
	"github.com/David-Botos/pathprep/pkg/geoparquet"
	"github.com/David-Botos/pathprep/pkg/model"
)

const stageInspect = "inspect"

func newInspectCommand(a *app) *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "inspect <path>",
		Short: "Print the schema, metadata and leading rows of a GeoParquet file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			t, md, err := geoparquet.NewReader(a.logger).ReadFile(cmd.Context(), path)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return failure.New(failure.NotFound, stageInspect, path, err)
				}
				return failure.New(failure.Load, stageInspect, path, err)
			}

			if !cmd.Flags().Changed("rows") {
				rows = a.cfg.PreviewRows
			}
			return writeInspection(a, path, t, md, rows)
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 5, "Number of rows to print; -1 prints all.")
	return cmd
}

func writeInspection(a *app, path string, t *model.Table, md *geoparquet.Metadata, rows int) error {
	fmt.Fprintf(a.stdout, "File:    %s\nRows:    %d\nColumns: %d\n\n", path, t.NumRows(), t.NumColumns())

	tw := table.NewWriter()
	tw.SetOutputMirror(a.stdout)
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(table.Row{"#", "column", "kind", "nulls"})
	nulls := t.NullCounts()
	for i, col := range t.Columns {
		tw.AppendRow(table.Row{i, col.Name, col.Kind.String(), nulls[col.Name]})
	}
	tw.Render()

	if md != nil {
		data, err := json.MarshalIndent(md, "", "  ")
		if err != nil {
			return errors.Wrap(err, "encode geoparquet metadata")
		}
		fmt.Fprintf(a.stdout, "\nGeoParquet metadata:\n%s\n", data)
	}

	if rows != 0 && t.NumRows() > 0 {
		fmt.Fprintln(a.stdout)
		diag.RenderPreview(a.stdout, t, rows)
	}
	return nil
}
