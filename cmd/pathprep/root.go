// cmd/pathprep/root.go
package main

import (
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/pathprep/pkg/config"
	"github.com/David-Botos/pathprep/pkg/diag"
	"github.com/David-Botos/pathprep/pkg/logging"
)

// app holds what every subcommand needs once flags and environment are read
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	sink   diag.Sink
	stdout io.Writer
}

// rootFlags are persistent flags overriding configuration values
type rootFlags struct {
	dataset      string
	rawDir       string
	processedDir string
	logLevel     string
	logFormat    string
	logFile      string
	previewRows  int
}

// NewRootCommand builds the pathprep command tree
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout}
	flags := &rootFlags{}

	rc := &cobra.Command{
		Use:   "pathprep",
		Short: "Prepare the cycling path dataset for analysis.",
		Long: `pathprep converts the municipal cycling path GeoJSON export into a
GeoParquet snapshot and cleans that snapshot into an analysis-ready table.

Run "ingest" first, then "clean". Use "inspect" to look at either file.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return errors.Wrap(err, "load configuration")
			}
			applyFlags(cmd, cfg, flags)
			if err := cfg.Validate(); err != nil {
				return errors.Wrap(err, "invalid configuration")
			}

			logger, err := logging.New(cfg)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			a.sink = diag.NewZapSink(logger, cfg.PreviewRows)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	pf := rc.PersistentFlags()
	pf.StringVar(&flags.dataset, "dataset", "", "Dataset name used to derive default paths.")
	pf.StringVar(&flags.rawDir, "raw-dir", "", "Directory holding raw artifacts.")
	pf.StringVar(&flags.processedDir, "processed-dir", "", "Directory receiving cleaned artifacts.")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error).")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format (console or json).")
	pf.StringVar(&flags.logFile, "log-file", "", "Run log file; an empty value disables file logging.")
	pf.IntVar(&flags.previewRows, "preview-rows", 0, "Rows shown in diagnostic previews.")

	rc.AddCommand(newIngestCommand(a))
	rc.AddCommand(newCleanCommand(a))
	rc.AddCommand(newInspectCommand(a))

	rc.SetIn(stdin)
	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

// applyFlags copies explicitly set flags over the loaded configuration
func applyFlags(cmd *cobra.Command, cfg *config.Config, flags *rootFlags) {
	fs := cmd.Flags()
	if fs.Changed("dataset") {
		cfg.Dataset = flags.dataset
	}
	if fs.Changed("raw-dir") {
		cfg.RawDir = flags.rawDir
	}
	if fs.Changed("processed-dir") {
		cfg.ProcessedDir = flags.processedDir
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if fs.Changed("log-format") {
		cfg.LogFormat = flags.logFormat
	}
	if fs.Changed("log-file") {
		cfg.LogFile = flags.logFile
	}
	if fs.Changed("preview-rows") {
		cfg.PreviewRows = flags.previewRows
	}
}
