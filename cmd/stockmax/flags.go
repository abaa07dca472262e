package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/stockmax/internal/config"
	"github.com/andresuchdata/stockmax/internal/drive"
	"github.com/andresuchdata/stockmax/internal/pipeline"
	stockmax "github.com/andresuchdata/stockmax/internal/pipeline/stock_max"
	"github.com/andresuchdata/stockmax/internal/storage"
	"github.com/urfave/cli/v2"
)

const (
	sourceDir   = "dir"
	sourceFiles = "files"
	sourceDrive = "drive"
	sourceS3    = "s3"
)

func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "source",
			Usage: "Where the four input tables come from: dir, files, drive or s3",
			Value: sourceDir,
		},
		&cli.StringFlag{
			Name:  "input-dir",
			Usage: "Directory holding the input tables (source dir); defaults to APP_INPUT_DIR",
		},
		&cli.StringFlag{Name: "sales", Usage: "Sales table file (source files)"},
		&cli.StringFlag{Name: "policy", Usage: "Stock policy table file (source files)"},
		&cli.StringFlag{Name: "limits", Usage: "Limit table file (source files)"},
		&cli.StringFlag{Name: "overrides", Usage: "Manual stock table file (source files)"},
		&cli.StringFlag{
			Name:  "drive-folder-id",
			Usage: "Google Drive folder ID containing the input tables (source drive); defaults to DRIVE_FOLDER_ID",
		},
		&cli.StringFlag{
			Name:  "s3-prefix",
			Usage: "Object prefix holding the input tables (source s3); defaults to STORAGE_PREFIX",
		},
		&cli.StringFlag{
			Name:  "download-dir",
			Usage: "Local directory where remote input tables are downloaded",
			Value: filepath.Join("data", "uploads", "stock_max"),
		},
	}
}

func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Number of concurrent workers; 0 or 1 computes sequentially. Defaults to ENGINE_WORKERS",
		},
		&cli.Float64Flag{
			Name:  "weeks-per-year",
			Usage: "Weeks used to turn yearly sales into weekly sales. Defaults to ENGINE_WEEKS_PER_YEAR",
		},
		&cli.StringFlag{
			Name:  "topology",
			Usage: `Warehouse topology "Name:Tier,..." in output order. Defaults to ENGINE_TOPOLOGY`,
		},
	}
}

func sinkFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "output-dir",
			Usage: "Directory for the result files; defaults to APP_OUTPUT_DIR",
		},
		&cli.StringFlag{
			Name:  "output-name",
			Usage: "Result CSV file name",
			Value: stockmax.DefaultResultFileName,
		},
		&cli.BoolFlag{
			Name:  "xlsx",
			Usage: "Also write the result as an XLSX workbook. Defaults to APP_WRITE_XLSX",
		},
		&cli.BoolFlag{
			Name:  "upload",
			Usage: "Also upload the result files to the configured bucket",
		},
	}
}

func policyExportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "output",
			Usage: "Where to write the exported policy table",
			Value: stockmax.DefaultPolicyFileName,
		},
	}
}

func stringOr(c *cli.Context, name, fallback string) string {
	if c.IsSet(name) {
		return c.String(name)
	}
	return fallback
}

// newPipeline builds the pipeline from config, with command line flags taking precedence.
func newPipeline(c *cli.Context, cfg *config.Config) (*stockmax.StockMaxPipeline, error) {
	topology, err := config.ParseTopology(stringOr(c, "topology", cfg.Engine.Topology))
	if err != nil {
		return nil, fmt.Errorf("invalid topology: %w", err)
	}
	workers := cfg.Engine.Workers
	if c.IsSet("workers") {
		workers = c.Int("workers")
	}
	weeks := cfg.Engine.WeeksPerYear
	if c.IsSet("weeks-per-year") {
		weeks = c.Float64("weeks-per-year")
	}
	return stockmax.NewStockMaxPipeline(stockmax.Config{
		Topology:     topology,
		WeeksPerYear: weeks,
		Workers:      workers,
	}), nil
}

func newSource(c *cli.Context, cfg *config.Config) (pipeline.Source, error) {
	names := cfg.Inputs.Names()
	switch strings.ToLower(c.String("source")) {
	case sourceDir:
		return pipeline.NewDirSource(stringOr(c, "input-dir", cfg.App.InputDir), names), nil
	case sourceFiles:
		return &pipeline.FileSource{Inputs: pipeline.Inputs{
			pipeline.TableSales:     c.String("sales"),
			pipeline.TablePolicy:    c.String("policy"),
			pipeline.TableLimits:    c.String("limits"),
			pipeline.TableOverrides: c.String("overrides"),
		}}, nil
	case sourceDrive:
		folderID := stringOr(c, "drive-folder-id", cfg.Drive.FolderID)
		if folderID == "" {
			return nil, fmt.Errorf("drive-folder-id or DRIVE_FOLDER_ID is required")
		}
		if strings.TrimSpace(cfg.Drive.CredentialsJSON) == "" {
			return nil, fmt.Errorf("GOOGLE_DRIVE_CREDENTIALS_JSON env is required")
		}
		svc, err := drive.NewService(c.Context, cfg.Drive.CredentialsJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Drive service: %w", err)
		}
		return drive.NewSource(svc, folderID, names), nil
	case sourceS3:
		client, err := newObjectStorage(cfg)
		if err != nil {
			return nil, err
		}
		return storage.NewBucketSource(client, cfg.Storage.Bucket, stringOr(c, "s3-prefix", cfg.Storage.Prefix), names), nil
	}
	return nil, fmt.Errorf("unknown source %q (dir, files, drive or s3)", c.String("source"))
}

func newObjectStorage(cfg *config.Config) (*storage.MinioClient, error) {
	if !cfg.Storage.Enabled() {
		return nil, fmt.Errorf("STORAGE_ENDPOINT and STORAGE_BUCKET are required")
	}
	return storage.NewMinioClient(storage.S3Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		UseSSL:    cfg.Storage.UseSSL,
	})
}

// loadTables fetches and validates the inputs, then loads them without computing.
func loadTables(ctx context.Context, c *cli.Context, cfg *config.Config) (*stockmax.StockMaxPipeline, stockmax.Tables, []string, error) {
	p, err := newPipeline(c, cfg)
	if err != nil {
		return nil, stockmax.Tables{}, nil, err
	}
	src, err := newSource(c, cfg)
	if err != nil {
		return nil, stockmax.Tables{}, nil, err
	}
	inputs, err := src.Fetch(ctx, c.String("download-dir"))
	if err != nil {
		return nil, stockmax.Tables{}, nil, err
	}
	if err := p.Validate(inputs); err != nil {
		return nil, stockmax.Tables{}, nil, err
	}
	tables, warnings, err := p.Load(inputs)
	if err != nil {
		return nil, stockmax.Tables{}, nil, err
	}
	return p, tables, warnings, nil
}
