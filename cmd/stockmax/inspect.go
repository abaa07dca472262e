package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/andresuchdata/stockmax/internal/config"
	"github.com/urfave/cli/v2"
)

func runInspect(c *cli.Context) error {
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

	w := c.App.Writer
	fmt.Fprintf(w, "topology:   %s (central %s)\n", p.Topology(), p.Topology().Central())
	fmt.Fprintf(w, "sales:      %d products\n", len(tables.Sales.Records))
	fmt.Fprintf(w, "policy:     %d tiers\n", tables.Policy.Len())
	fmt.Fprintf(w, "limits:     %d product types\n", tables.Limits.Len())
	fmt.Fprintf(w, "overrides:  %d products\n", tables.Overrides.Len())
	fmt.Fprintf(w, "direto:     %t\n", tables.Limits.UsesDireto())

	if unmapped := tables.Limits.Unmapped(tables.Sales.Records); len(unmapped) > 0 {
		fmt.Fprintf(w, "unmapped product types (stock 0 everywhere): %s\n", strings.Join(unmapped, ", "))
	}
	for _, warning := range warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	return nil
}
