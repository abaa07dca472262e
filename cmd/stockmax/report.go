package main

import (
	"context"

	"github.com/andresuchdata/stockmax/internal/config"
	stockmax "github.com/andresuchdata/stockmax/internal/pipeline/stock_max"
	"github.com/andresuchdata/stockmax/pkg/logger"
	"github.com/urfave/cli/v2"
)

func runReport(c *cli.Context) error {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	p, tables, warnings, err := loadTables(ctx, c, cfg)
	if err != nil {
		return err
	}
	result, err := p.Compute(ctx, tables, warnings)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings() {
		logger.Log.Warn().Msg(w)
	}
	return stockmax.WriteReportText(c.App.Writer, result)
}
