package stock_max

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// CalculatorConfig tunes the stock calculator.
type CalculatorConfig struct {
	Topology     *Topology
	WeeksPerYear float64 // defaults to 52
	Workers      int     // <= 1 computes records sequentially
}

// StockCalculator computes the maximum stock per product and warehouse.
type StockCalculator struct {
	tables   Tables
	topology *Topology
	gate     *Gate
	weeks    float64
	workers  int
	names    []string
}

// NewStockCalculator wires the four tables and the topology together.
func NewStockCalculator(tables Tables, cfg CalculatorConfig) (*StockCalculator, error) {
	if tables.Sales == nil || tables.Policy == nil || tables.Limits == nil || tables.Overrides == nil {
		return nil, ErrMissingTable
	}
	topo := cfg.Topology
	if topo == nil {
		topo = DefaultTopology()
	}
	weeks := cfg.WeeksPerYear
	if weeks <= 0 {
		weeks = DefaultWeeksPerYear
	}
	return &StockCalculator{
		tables:   tables,
		topology: topo,
		gate:     NewGate(tables.Limits, topo),
		weeks:    weeks,
		workers:  cfg.Workers,
		names:    topo.Names(),
	}, nil
}

// Compute returns the maximum stock for one product at one warehouse.
//
// Precedence: a manual override wins outright (zero included); then the threshold gate;
// then the policy tier for the warehouse's own sales, applied with the rule of the
// warehouse tier. The central warehouse under the Normal policy is sized on the sales of
// the whole network.
func (c *StockCalculator) Compute(record *SalesRecord, warehouse string) (float64, error) {
	tier, err := c.topology.Tier(warehouse)
	if err != nil {
		return 0, err
	}

	if qty, ok := c.tables.Overrides.Quantity(record.Label, warehouse); ok {
		return qty, nil
	}

	decision, err := c.gate.Check(record, warehouse)
	if err != nil {
		return 0, err
	}
	if !decision.Open {
		return 0, nil
	}

	sales := record.Sales[warehouse]
	policyTier, err := c.tables.Policy.Resolve(sales, decision.Policy)
	if err != nil {
		return 0, fmt.Errorf("product %q at %s: %w", record.Label, warehouse, err)
	}
	rule, err := policyTier.Rule(tier)
	if err != nil {
		return 0, err
	}

	if tier == TierCentral && decision.Policy == PolicyNormal {
		sales = record.TotalSales(c.names)
	}

	if rule.Mode == ModeWeeksOfSales {
		return RoundUpToMultiple(sales/c.weeks*rule.Value, record.VehicleLoad), nil
	}
	return RoundUpToMultiple(rule.Value, record.VehicleLoad), nil
}

// ComputeRecord fills in classification, stock and value for every warehouse of a record.
func (c *StockCalculator) ComputeRecord(record *SalesRecord) (ProductResult, error) {
	res := ProductResult{
		Record:     record,
		Warehouses: make(map[string]WarehouseResult, len(c.names)),
	}
	for _, wh := range c.names {
		sales := record.Sales[wh]
		stock, err := c.Compute(record, wh)
		if err != nil {
			return ProductResult{}, err
		}
		res.Warehouses[wh] = WarehouseResult{
			Sales: sales,
			Class: c.tables.Policy.Classify(sales, PolicyNormal),
			Stock: stock,
			Value: ValueOf(stock, record.UnitPrice),
		}
	}
	return res, nil
}

// ComputeAll runs the calculation for every sales record. Records are independent, so
// with Workers > 1 they are spread over a bounded errgroup; each goroutine writes only
// its own slot of the result slice.
func (c *StockCalculator) ComputeAll(ctx context.Context) (*Result, error) {
	records := c.tables.Sales.Records
	products := make([]ProductResult, len(records))

	if c.workers <= 1 {
		for i := range records {
			res, err := c.ComputeRecord(&records[i])
			if err != nil {
				return nil, err
			}
			products[i] = res
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.workers)
		for i := range records {
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				res, err := c.ComputeRecord(&records[i])
				if err != nil {
					return err
				}
				products[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	dups := append(c.tables.Limits.Duplicates(), c.tables.Overrides.Duplicates()...)
	return &Result{
		Header:     append([]string(nil), c.tables.Sales.Header...),
		Topology:   c.topology,
		Products:   products,
		Unmapped:   c.tables.Limits.Unmapped(records),
		Duplicates: dups,
	}, nil
}
