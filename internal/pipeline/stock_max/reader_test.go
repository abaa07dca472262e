package stock_max

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestLoadSales(t *testing.T) {
	loader := NewLoader(testTopology(t))
	table, err := loader.LoadSales(strings.NewReader(salesCSV), "vendas.csv")
	if err != nil {
		t.Fatalf("LoadSales: %v", err)
	}
	if len(table.Records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(table.Records))
	}
	p1 := table.Records[0]
	if p1.Label != "P1" || p1.TypeDesc != "X" || p1.VehicleLoad != 10 || p1.UnitPrice != 2.5 {
		t.Fatalf("unexpected P1 %+v", p1)
	}
	if p1.Sales["Porto"] != 104 {
		t.Fatalf("P1 Porto sales = %v", p1.Sales["Porto"])
	}
	if len(table.Header) != 7 || len(p1.Cells) != 7 {
		t.Fatalf("header/cells not carried: %v / %v", table.Header, p1.Cells)
	}
	if w := loader.Warnings(); len(w) != 0 {
		t.Fatalf("unexpected warnings %v", w)
	}
}

func TestLoadSalesSemicolonWithoutPrice(t *testing.T) {
	data := "\xef\xbb\xbfRótulos de Linha;Tipodesc;QtVeiculo;Porto;Lisboa;SMFeira\nP1;X;6;12,5;1;2\n"
	loader := NewLoader(testTopology(t))
	table, err := loader.LoadSales(strings.NewReader(data), "vendas.csv")
	if err != nil {
		t.Fatalf("LoadSales: %v", err)
	}
	if got := table.Records[0].Sales["Porto"]; got != 12.5 {
		t.Fatalf("Porto sales = %v, want 12.5", got)
	}
	if w := loader.Warnings(); len(w) != 1 || !strings.Contains(w[0], "no unit price column") {
		t.Fatalf("expected missing price warning, got %v", w)
	}
}

func TestLoadSalesMissingColumns(t *testing.T) {
	loader := NewLoader(testTopology(t))

	_, err := loader.LoadSales(strings.NewReader("Rótulos de Linha,Tipodesc,Porto,Lisboa,SMFeira\nP1,X,1,1,1\n"), "vendas.csv")
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn for QtVeiculo, got %v", err)
	}

	_, err = loader.LoadSales(strings.NewReader("Rótulos de Linha,Tipodesc,QtVeiculo,Porto,Lisboa\nP1,X,1,1,1\n"), "vendas.csv")
	if !errors.Is(err, ErrUnknownWarehouse) {
		t.Fatalf("expected ErrUnknownWarehouse for SMFeira, got %v", err)
	}
}

func TestLoadPolicy(t *testing.T) {
	data := policyCSV + "Especial,0,X,1,sm,1,sm,1,sm\nNormal,10,B,1,kg,1,sm,1,sm\n"
	loader := NewLoader(testTopology(t))
	table, err := loader.LoadPolicy(strings.NewReader(data), "configuracao.csv")
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}
	if table.Len() != 4 {
		t.Fatalf("expected 4 tiers (unknown type skipped), got %d", table.Len())
	}
	normal := table.Tiers(PolicyNormal)
	if normal[0].Class != "A" || normal[0].Local != units(7) || normal[0].Central != weeks(4) {
		t.Fatalf("unexpected top Normal tier %+v", normal[0])
	}
	if w := loader.Warnings(); len(w) != 2 {
		t.Fatalf("expected warnings for unknown type and unknown mode, got %v", w)
	}
}

func TestLoadPolicyWithoutTiers(t *testing.T) {
	data := "Tipo,Vendas,ABC,Central,calculo_Central,Regional,calculo_Regional,Local,calculo_Local\n"
	_, err := NewLoader(testTopology(t)).LoadPolicy(strings.NewReader(data), "configuracao.csv")
	if !errors.Is(err, ErrNoPolicyTiers) {
		t.Fatalf("expected ErrNoPolicyTiers, got %v", err)
	}
}

func TestLoadLimitsAndOverrides(t *testing.T) {
	loader := NewLoader(testTopology(t))
	limits, err := loader.LoadLimits(strings.NewReader(limitsCSV+"X,5,5,5,1\n"), "limite.csv")
	if err != nil {
		t.Fatalf("LoadLimits: %v", err)
	}
	y, ok := limits.Lookup("Y")
	if !ok || !y.Direto || y.MinSales["Lisboa"] != 40 {
		t.Fatalf("unexpected Y rule %+v", y)
	}
	x, _ := limits.Lookup("X")
	if x.Direto || x.MinSales["Porto"] != 0 {
		t.Fatalf("first X row should win, got %+v", x)
	}

	overrides, err := loader.LoadOverrides(strings.NewReader(overridesCSV), "stock_manual.csv")
	if err != nil {
		t.Fatalf("LoadOverrides: %v", err)
	}
	if qty, ok := overrides.Quantity("P2", "Lisboa"); !ok || qty != 6 {
		t.Fatalf("P2 Lisboa override = %v, %v", qty, ok)
	}
	if qty, ok := overrides.Quantity("P2", "SMFeira"); !ok || qty != 0 {
		t.Fatalf("empty override cell should read as 0, got %v, %v", qty, ok)
	}

	w := loader.Warnings()
	if len(w) != 1 || !strings.Contains(w[0], `"X"`) {
		t.Fatalf("expected duplicate type warning, got %v", w)
	}
}

func TestLoadOverridesRequiresSMColumns(t *testing.T) {
	data := "RótulosdeLinha,Porto,Lisboa,SMFeira\nP1,1,1,1\n"
	_, err := NewLoader(testTopology(t)).LoadOverrides(strings.NewReader(data), "stock_manual.csv")
	if !errors.Is(err, ErrUnknownWarehouse) {
		t.Fatalf("expected ErrUnknownWarehouse, got %v", err)
	}
}

func TestLoadFileMissing(t *testing.T) {
	loader := NewLoader(testTopology(t))
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.csv"), loader.LoadSales)
	if !errors.Is(err, ErrMissingTable) {
		t.Fatalf("expected ErrMissingTable, got %v", err)
	}
}

func TestReadSheetEmpty(t *testing.T) {
	if _, err := readSheet(strings.NewReader(""), "empty.csv"); !errors.Is(err, ErrUnreadableTable) {
		t.Fatalf("expected ErrUnreadableTable, got %v", err)
	}
}

// thousandsWorkbook writes a sales sheet whose numeric cells display with a thousands
// separator ("#,##0"), followed by a trailing row that holds only an empty string.
func thousandsWorkbook(t *testing.T) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	rows := [][]interface{}{
		{"Rótulos de Linha", "Tipodesc", "QtVeiculo", "Preço", "Porto", "Lisboa", "SMFeira"},
		{"P1", "X", 10, 12.5, 1234, 1500, 2},
	}
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	if err := f.SetCellValue(sheet, "A4", ""); err != nil {
		t.Fatalf("SetCellValue: %v", err)
	}
	style, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	if err != nil {
		t.Fatalf("NewStyle: %v", err)
	}
	if err := f.SetCellStyle(sheet, "C2", "G2", style); err != nil {
		t.Fatalf("SetCellStyle: %v", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	return &buf
}

func TestLoadSalesXLSXIgnoresDisplayFormat(t *testing.T) {
	loader := NewLoader(testTopology(t))
	table, err := loader.LoadSales(thousandsWorkbook(t), "vendas.xlsx")
	if err != nil {
		t.Fatalf("LoadSales: %v", err)
	}
	if len(table.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(table.Records))
	}
	p1 := table.Records[0]
	if p1.Sales["Porto"] != 1234 || p1.Sales["Lisboa"] != 1500 || p1.Sales["SMFeira"] != 2 {
		t.Fatalf("sales read through the display format: %v (cells %q)", p1.Sales, p1.Cells)
	}
	if p1.VehicleLoad != 10 || p1.UnitPrice != 12.5 {
		t.Fatalf("unexpected load/price %v / %v", p1.VehicleLoad, p1.UnitPrice)
	}
	if p1.Cells[4] != "1234" {
		t.Fatalf("raw cell = %q, want 1234", p1.Cells[4])
	}
}
