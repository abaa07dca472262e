package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andresuchdata/stockmax/internal/config"
	stockmax "github.com/andresuchdata/stockmax/internal/pipeline/stock_max"
	"github.com/andresuchdata/stockmax/pkg/logger"
	"github.com/urfave/cli/v2"
)

func runPolicyExport(c *cli.Context) error {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	_, tables, warnings, err := loadTables(ctx, c, cfg)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Log.Warn().Msg(w)
	}

	out := c.String("output")
	if !filepath.IsAbs(out) && filepath.Dir(out) == "." {
		out = filepath.Join(cfg.App.OutputDir, out)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := stockmax.WritePolicyCSV(f, tables.Policy); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Log.Info().Str("path", out).Int("tiers", tables.Policy.Len()).Msg("policy table exported")
	return nil
}
