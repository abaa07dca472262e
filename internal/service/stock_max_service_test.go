package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/andresuchdata/stockmax/internal/cache"
	"github.com/andresuchdata/stockmax/internal/domain"
	"github.com/andresuchdata/stockmax/internal/pipeline"
	stockmax "github.com/andresuchdata/stockmax/internal/pipeline/stock_max"
	"github.com/andresuchdata/stockmax/pkg/logger"
)

const (
	salesCSV = "Rótulos de Linha,Tipodesc,QtVeiculo,Preço,Porto,Lisboa,SMFeira\n" +
		"P1,X,10,2,104,0,0\n" +
		"P2,Z,1,1,5,5,5\n"
	policyCSV = "Tipo,Vendas,ABC,Central,calculo_Central,Regional,calculo_Regional,Local,calculo_Local\n" +
		"Normal,0,C,2,sm,2,sm,2,sm\n"
	limitsCSV    = "Tipodesc,Porto,Lisboa,SMFeira,Stock Direto\nX,0,0,0,0\n"
	overridesCSV = "RótulosdeLinha,Porto SM,Lisboa SM,SMFeira SM\n"
)

func testUploads() Uploads {
	return Uploads{
		pipeline.TableSales:     {FileName: "vendas.csv", Data: []byte(salesCSV)},
		pipeline.TablePolicy:    {FileName: "configuracao.csv", Data: []byte(policyCSV)},
		pipeline.TableLimits:    {FileName: "limite.csv", Data: []byte(limitsCSV)},
		pipeline.TableOverrides: {FileName: "stock_manual.csv", Data: []byte(overridesCSV)},
	}
}

func newTestService(t *testing.T, c cache.ResultCache) *StockMaxService {
	t.Helper()
	topo, err := stockmax.NewTopology([]stockmax.Warehouse{
		{Name: "Porto", Tier: stockmax.TierLocal},
		{Name: "Lisboa", Tier: stockmax.TierRegional},
		{Name: "SMFeira", Tier: stockmax.TierCentral},
	})
	if err != nil {
		t.Fatalf("NewTopology: %v", err)
	}
	p := stockmax.NewStockMaxPipeline(stockmax.Config{Topology: topo})
	return NewStockMaxService(p, c, stockmax.DefaultWeeksPerYear)
}

type memoryCache struct {
	mu      sync.Mutex
	compute map[string]*domain.ComputeResponse
	report  map[string]*domain.ReportResponse
	hits    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		compute: make(map[string]*domain.ComputeResponse),
		report:  make(map[string]*domain.ReportResponse),
	}
}

func (m *memoryCache) GetCompute(ctx context.Context, key string) (*domain.ComputeResponse, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp, ok := m.compute[key]
	if ok {
		m.hits++
	}
	return resp, ok, nil
}

func (m *memoryCache) SetCompute(ctx context.Context, key string, resp *domain.ComputeResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.compute[key] = resp
	return nil
}

func (m *memoryCache) GetReport(ctx context.Context, key string) (*domain.ReportResponse, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp, ok := m.report[key]
	if ok {
		m.hits++
	}
	return resp, ok, nil
}

func (m *memoryCache) SetReport(ctx context.Context, key string, resp *domain.ReportResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.report[key] = resp
	return nil
}

func (m *memoryCache) InvalidateAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.compute = make(map[string]*domain.ComputeResponse)
	m.report = make(map[string]*domain.ReportResponse)
	return nil
}

func TestCompute(t *testing.T) {
	svc := newTestService(t, nil)
	resp, err := svc.Compute(context.Background(), testUploads())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(resp.Products) != 2 || len(resp.Warehouses) != 3 {
		t.Fatalf("unexpected response %+v", resp)
	}
	p1 := resp.Products[0]
	if p1.Label != "P1" || p1.Warehouses["Porto"].StockMax != 10 || p1.Warehouses["SMFeira"].StockMax != 10 {
		t.Fatalf("unexpected P1 %+v", p1)
	}
	if p1.Warehouses["Porto"].Value.String() != "20" {
		t.Fatalf("P1 Porto value = %s, want 20", p1.Warehouses["Porto"].Value)
	}
	if len(resp.Unmapped) != 1 || resp.Unmapped[0] != "Z" {
		t.Fatalf("Unmapped = %v", resp.Unmapped)
	}
}

func TestComputeUsesCache(t *testing.T) {
	mc := newMemoryCache()
	svc := newTestService(t, mc)
	ctx := context.Background()

	if _, err := svc.Compute(ctx, testUploads()); err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if _, err := svc.Compute(ctx, testUploads()); err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if mc.hits != 1 {
		t.Fatalf("expected one cache hit, got %d", mc.hits)
	}

	changed := testUploads()
	changed[pipeline.TableSales] = Upload{FileName: "vendas.csv", Data: []byte(salesCSV + "P3,X,1,1,1,1,1\n")}
	resp, err := svc.Compute(ctx, changed)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(resp.Products) != 3 || mc.hits != 1 {
		t.Fatalf("changed upload must not hit the cache (products=%d, hits=%d)", len(resp.Products), mc.hits)
	}

	if err := svc.InvalidateCache(ctx); err != nil {
		t.Fatalf("InvalidateCache: %v", err)
	}
	if len(mc.compute) != 0 {
		t.Fatal("cache should be empty after invalidation")
	}
}

func TestReport(t *testing.T) {
	svc := newTestService(t, nil)
	resp, err := svc.Report(context.Background(), testUploads())
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if resp.TotalStock != 20 || resp.TotalValue.String() != "40" {
		t.Fatalf("totals = %v / %s, want 20 / 40", resp.TotalStock, resp.TotalValue)
	}
	if len(resp.ByWarehouse) != 3 || resp.ByWarehouse[2].Tier != "Central" {
		t.Fatalf("unexpected warehouse totals %+v", resp.ByWarehouse)
	}
	if len(resp.ByClassification) != 3 {
		t.Fatalf("unexpected classification totals %+v", resp.ByClassification)
	}
}

func TestComputeMissingUpload(t *testing.T) {
	uploads := testUploads()
	delete(uploads, pipeline.TableLimits)
	_, err := newTestService(t, nil).Compute(context.Background(), uploads)
	if !errors.Is(err, stockmax.ErrMissingTable) {
		t.Fatalf("expected ErrMissingTable, got %v", err)
	}
}

func TestComputeRejectsUnsupportedFormat(t *testing.T) {
	uploads := testUploads()
	uploads[pipeline.TableSales] = Upload{FileName: "vendas.pdf", Data: []byte(salesCSV)}
	_, err := newTestService(t, nil).Compute(context.Background(), uploads)
	if !errors.Is(err, stockmax.ErrUnreadableTable) {
		t.Fatalf("expected ErrUnreadableTable, got %v", err)
	}
}

type failingCache struct{ *memoryCache }

var errCacheDown = errors.New("redis down")

func (f *failingCache) GetCompute(ctx context.Context, key string) (*domain.ComputeResponse, bool, error) {
	return nil, false, errCacheDown
}

func TestComputeLogsCacheFailuresThroughLogger(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf, "json")
	defer logger.SetOutput(os.Stdout, "console")

	svc := newTestService(t, &failingCache{memoryCache: newMemoryCache()})
	if _, err := svc.Compute(context.Background(), testUploads()); err != nil {
		t.Fatalf("a cache failure must not fail Compute: %v", err)
	}
	if out := buf.String(); !strings.Contains(out, "cache get compute failed") || !strings.Contains(out, "redis down") {
		t.Fatalf("expected the cache failure in the configured log output, got %q", out)
	}
}
