package stock_max

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/stockmax/internal/pipeline"
	"github.com/andresuchdata/stockmax/pkg/logger"
)

// Config holds configuration for the max stock pipeline
type Config struct {
	Topology     *Topology
	WeeksPerYear float64
	Workers      int
}

// StockMaxPipeline implements the generic pipeline.Pipeline interface for the four
// max stock input tables.
type StockMaxPipeline struct {
	config Config
}

// NewStockMaxPipeline creates a new pipeline instance.
func NewStockMaxPipeline(cfg Config) *StockMaxPipeline {
	if cfg.Topology == nil {
		cfg.Topology = DefaultTopology()
	}
	if cfg.WeeksPerYear <= 0 {
		cfg.WeeksPerYear = DefaultWeeksPerYear
	}
	return &StockMaxPipeline{config: cfg}
}

// Name returns the unique identifier of this pipeline.
func (p *StockMaxPipeline) Name() string {
	return "stock_max"
}

// Topology returns the warehouse topology the pipeline computes for.
func (p *StockMaxPipeline) Topology() *Topology {
	return p.config.Topology
}

// Validate checks that all four tables are present and are readable CSV/XLSX files.
// A missing table blocks the run entirely.
func (p *StockMaxPipeline) Validate(inputs pipeline.Inputs) error {
	if missing := inputs.Missing(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, t := range missing {
			names[i] = string(t)
		}
		return fmt.Errorf("%w: %s", ErrMissingTable, strings.Join(names, ", "))
	}
	for _, table := range pipeline.RequiredTables {
		path := inputs[table]
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("%w: cannot stat %s file %s: %v", ErrMissingTable, table, path, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%w: input path %s is a directory, expected file", ErrUnreadableTable, path)
		}
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".csv", ".xlsx", ".xlsm":
		default:
			return fmt.Errorf("%w: unsupported file extension %s for %s (CSV or XLSX expected)", ErrUnreadableTable, ext, path)
		}
	}
	return nil
}

// Load reads the four tables. Loader warnings are returned alongside.
func (p *StockMaxPipeline) Load(inputs pipeline.Inputs) (Tables, []string, error) {
	loader := NewLoader(p.config.Topology)

	sales, err := LoadFile(inputs[pipeline.TableSales], loader.LoadSales)
	if err != nil {
		return Tables{}, nil, fmt.Errorf("failed to load sales table: %w", err)
	}
	policy, err := LoadFile(inputs[pipeline.TablePolicy], loader.LoadPolicy)
	if err != nil {
		return Tables{}, nil, fmt.Errorf("failed to load policy table: %w", err)
	}
	limits, err := LoadFile(inputs[pipeline.TableLimits], loader.LoadLimits)
	if err != nil {
		return Tables{}, nil, fmt.Errorf("failed to load limit table: %w", err)
	}
	overrides, err := LoadFile(inputs[pipeline.TableOverrides], loader.LoadOverrides)
	if err != nil {
		return Tables{}, nil, fmt.Errorf("failed to load manual stock table: %w", err)
	}

	logger.Log.Debug().
		Int("sales_rows", len(sales.Records)).
		Int("policy_tiers", policy.Len()).
		Int("limit_rules", limits.Len()).
		Int("overrides", overrides.Len()).
		Msg("stock_max: tables loaded")

	warnings := loader.Warnings()
	if limits.UsesDireto() && len(policy.Tiers(PolicyDireto)) == 0 {
		warnings = append(warnings, "limit table selects Stock Direto but the policy table has no Direto rows")
	}
	return Tables{Sales: sales, Policy: policy, Limits: limits, Overrides: overrides}, warnings, nil
}

// Compute runs the calculator over already loaded tables.
func (p *StockMaxPipeline) Compute(ctx context.Context, tables Tables, warnings []string) (*Result, error) {
	calc, err := NewStockCalculator(tables, CalculatorConfig{
		Topology:     p.config.Topology,
		WeeksPerYear: p.config.WeeksPerYear,
		Workers:      p.config.Workers,
	})
	if err != nil {
		return nil, err
	}
	result, err := calc.ComputeAll(ctx)
	if err != nil {
		return nil, err
	}
	result.LoadWarnings = warnings
	return result, nil
}

// Transform loads the inputs and computes the result table.
func (p *StockMaxPipeline) Transform(ctx context.Context, inputs pipeline.Inputs) (pipeline.Output, error) {
	tables, warnings, err := p.Load(inputs)
	if err != nil {
		return nil, err
	}
	result, err := p.Compute(ctx, tables, warnings)
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ pipeline.Pipeline = (*StockMaxPipeline)(nil)
var _ pipeline.Output = (*Result)(nil)
