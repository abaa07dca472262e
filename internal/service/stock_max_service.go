package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/stockmax/internal/cache"
	"github.com/andresuchdata/stockmax/internal/domain"
	"github.com/andresuchdata/stockmax/internal/pipeline"
	stockmax "github.com/andresuchdata/stockmax/internal/pipeline/stock_max"
	"github.com/andresuchdata/stockmax/pkg/logger"
)

// Upload is one uploaded input table.
type Upload struct {
	FileName string
	Data     []byte
}

// Uploads holds the uploaded tables by table name.
type Uploads map[pipeline.TableName]Upload

// Missing returns the required tables that were not uploaded.
func (u Uploads) Missing() []pipeline.TableName {
	var missing []pipeline.TableName
	for _, t := range pipeline.RequiredTables {
		if len(u[t].Data) == 0 {
			missing = append(missing, t)
		}
	}
	return missing
}

func (u Uploads) key(settings string) string {
	tables := make(map[string][]byte, len(u))
	for t, up := range u {
		tables[string(t)+filepath.Ext(up.FileName)] = up.Data
	}
	return cache.InputsKey(settings, tables)
}

type StockMaxService struct {
	pipeline *stockmax.StockMaxPipeline
	cache    cache.ResultCache
	settings string
}

func NewStockMaxService(p *stockmax.StockMaxPipeline, cacheImpl cache.ResultCache, weeksPerYear float64) *StockMaxService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopResultCache()
	}
	return &StockMaxService{
		pipeline: p,
		cache:    cacheImpl,
		settings: fmt.Sprintf("topology=%s|weeks=%g", p.Topology(), weeksPerYear),
	}
}

// Topology returns the warehouse topology results are computed for.
func (s *StockMaxService) Topology() *stockmax.Topology {
	return s.pipeline.Topology()
}

// Result computes the full result table from the uploads. It is never cached.
func (s *StockMaxService) Result(ctx context.Context, uploads Uploads) (*stockmax.Result, error) {
	if missing := uploads.Missing(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, t := range missing {
			names[i] = string(t)
		}
		return nil, fmt.Errorf("%w: %s", stockmax.ErrMissingTable, strings.Join(names, ", "))
	}

	dir, err := os.MkdirTemp("", "stockmax-upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	defer os.RemoveAll(dir)

	inputs := make(pipeline.Inputs, len(uploads))
	for table, up := range uploads {
		ext := strings.ToLower(filepath.Ext(up.FileName))
		if ext == "" {
			ext = ".csv"
		}
		path := filepath.Join(dir, string(table)+ext)
		if err := os.WriteFile(path, up.Data, 0o600); err != nil {
			return nil, fmt.Errorf("failed to store %s upload: %w", table, err)
		}
		inputs[table] = path
	}

	if err := s.pipeline.Validate(inputs); err != nil {
		return nil, err
	}
	tables, warnings, err := s.pipeline.Load(inputs)
	if err != nil {
		return nil, err
	}
	return s.pipeline.Compute(ctx, tables, warnings)
}

func (s *StockMaxService) Compute(ctx context.Context, uploads Uploads) (*domain.ComputeResponse, error) {
	key := uploads.key(s.settings)
	if resp, ok, err := s.cache.GetCompute(ctx, key); err == nil && ok {
		return resp, nil
	} else if err != nil {
		logger.Log.Warn().Err(err).Msg("stock max: cache get compute failed")
	}

	result, err := s.Result(ctx, uploads)
	if err != nil {
		return nil, err
	}
	resp := ToComputeResponse(result)

	if err := s.cache.SetCompute(ctx, key, resp); err != nil {
		logger.Log.Warn().Err(err).Msg("stock max: cache set compute failed")
	}
	return resp, nil
}

func (s *StockMaxService) Report(ctx context.Context, uploads Uploads) (*domain.ReportResponse, error) {
	key := uploads.key(s.settings)
	if resp, ok, err := s.cache.GetReport(ctx, key); err == nil && ok {
		return resp, nil
	} else if err != nil {
		logger.Log.Warn().Err(err).Msg("stock max: cache get report failed")
	}

	result, err := s.Result(ctx, uploads)
	if err != nil {
		return nil, err
	}
	resp := ToReportResponse(result)

	if err := s.cache.SetReport(ctx, key, resp); err != nil {
		logger.Log.Warn().Err(err).Msg("stock max: cache set report failed")
	}
	return resp, nil
}

// ToComputeResponse flattens a result into the API shape.
func ToComputeResponse(result *stockmax.Result) *domain.ComputeResponse {
	resp := &domain.ComputeResponse{
		Warehouses: result.Topology.Names(),
		Products:   make([]domain.ProductRow, 0, len(result.Products)),
		Unmapped:   result.Unmapped,
		Warnings:   result.Warnings(),
	}
	for _, p := range result.Products {
		row := domain.ProductRow{
			Label:       p.Record.Label,
			TypeDesc:    p.Record.TypeDesc,
			VehicleLoad: p.Record.VehicleLoad,
			UnitPrice:   p.Record.UnitPrice,
			Warehouses:  make(map[string]domain.WarehouseCell, len(p.Warehouses)),
		}
		for wh, cell := range p.Warehouses {
			row.Warehouses[wh] = domain.WarehouseCell{
				Sales:    cell.Sales,
				Class:    cell.Class,
				StockMax: cell.Stock,
				Value:    cell.Value,
			}
		}
		resp.Products = append(resp.Products, row)
	}
	return resp
}

// ToReportResponse builds both valuation reports.
func ToReportResponse(result *stockmax.Result) *domain.ReportResponse {
	byWarehouse := stockmax.ReportByWarehouse(result)
	resp := &domain.ReportResponse{
		TotalStock: byWarehouse.TotalStock,
		TotalValue: byWarehouse.TotalValue,
		Warnings:   result.Warnings(),
	}
	for _, wv := range byWarehouse.Warehouses {
		resp.ByWarehouse = append(resp.ByWarehouse, domain.WarehouseTotal{
			Warehouse: wv.Warehouse,
			Tier:      string(wv.Tier),
			Stock:     wv.Stock,
			Value:     wv.Value,
		})
	}
	for _, report := range stockmax.ReportByClassification(result) {
		totals := domain.WarehouseClassTotals{Warehouse: report.Warehouse}
		for _, cv := range report.Classes {
			totals.Classes = append(totals.Classes, domain.ClassTotal{
				Class:    cv.Class,
				Products: cv.Products,
				Stock:    cv.Stock,
				Value:    cv.Value,
			})
		}
		resp.ByClassification = append(resp.ByClassification, totals)
	}
	return resp
}

// InvalidateCache drops every cached response.
func (s *StockMaxService) InvalidateCache(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}
