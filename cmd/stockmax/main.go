package main

import (
	"os"

	"github.com/andresuchdata/stockmax/internal/config"
	"github.com/andresuchdata/stockmax/pkg/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "stockmax",
		Usage: "Compute ABC classification and maximum stock per product and warehouse",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (trace, debug, info, warn, error)",
				EnvVars: []string{"APP_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log output format: console or json",
				EnvVars: []string{"APP_LOG_FORMAT"},
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			{
				Name:   "compute",
				Usage:  "Compute the result table and write it to the configured sinks",
				Flags:  append(append(sourceFlags(), engineFlags()...), sinkFlags()...),
				Action: runCompute,
			},
			{
				Name:   "report",
				Usage:  "Print stock and stock value per warehouse and per classification",
				Flags:  append(sourceFlags(), engineFlags()...),
				Action: runReport,
			},
			{
				Name:   "inspect",
				Usage:  "Load the four tables and print row counts and data problems without computing",
				Flags:  append(sourceFlags(), engineFlags()...),
				Action: runInspect,
			},
			{
				Name:  "policy",
				Usage: "Stock policy table utilities",
				Subcommands: []*cli.Command{
					{
						Name:   "export",
						Usage:  "Write the loaded policy table as normalised CSV, in input order",
						Flags:  append(append(sourceFlags(), engineFlags()...), policyExportFlags()...),
						Action: runPolicyExport,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("stockmax failed")
	}
}

// setupLogging loads the configuration once and applies the log settings. Flags win
// over the environment.
func setupLogging(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level := cfg.App.LogLevel
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}
	format := cfg.App.LogFormat
	if c.IsSet("log-format") {
		format = c.String("log-format")
	}
	logger.SetFormat(format)
	logger.SetLevel(level)
	return nil
}
