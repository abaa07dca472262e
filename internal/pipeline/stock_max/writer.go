package stock_max

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Output column prefixes, one triple per warehouse.
const (
	ClassColumnPrefix = "ABCDEF_"
	StockColumnPrefix = "Stock_Maximo_"
	ValueColumnPrefix = "Valor_Stock_"
)

// DefaultResultFileName is the name of the exported result table.
const DefaultResultFileName = "resultado_stocks_maximos.csv"

// DefaultPolicyFileName is the name of the re-exported policy table.
const DefaultPolicyFileName = "configuracao_estoque_editada.csv"

// OutputHeader is the sales header followed by the derived columns of every warehouse.
func (r *Result) OutputHeader() []string {
	names := r.Topology.Names()
	header := make([]string, 0, len(r.Header)+3*len(names))
	header = append(header, r.Header...)
	for _, wh := range names {
		header = append(header, ClassColumnPrefix+wh, StockColumnPrefix+wh, ValueColumnPrefix+wh)
	}
	return header
}

// Record renders one product as output cells aligned with OutputHeader.
func (r *Result) Record(p ProductResult) []string {
	names := r.Topology.Names()
	rec := make([]string, 0, len(r.Header)+3*len(names))
	for i := range r.Header {
		rec = append(rec, cell(p.Record.Cells, i))
	}
	for _, wh := range names {
		c := p.Warehouses[wh]
		rec = append(rec, c.Class, formatQuantity(c.Stock), c.Value.StringFixed(2))
	}
	return rec
}

// Rows is the number of product rows.
func (r *Result) Rows() int { return len(r.Products) }

// WriteCSV exports the result as UTF-8 CSV with a header row and no index column.
func (r *Result) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(r.OutputHeader()); err != nil {
		return err
	}
	for _, p := range r.Products {
		if err := cw.Write(r.Record(p)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX exports the result as a single-sheet workbook. Derived quantities and values
// are written as numbers so the sheet can be summed directly.
func (r *Result) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Resultados"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	header := r.OutputHeader()
	for i, h := range header {
		if err := setCell(f, sheetName, i, 1, h); err != nil {
			return err
		}
	}

	names := r.Topology.Names()
	for n, p := range r.Products {
		row := n + 2
		col := 0
		for i := range r.Header {
			if err := setCell(f, sheetName, col, row, cell(p.Record.Cells, i)); err != nil {
				return err
			}
			col++
		}
		for _, wh := range names {
			c := p.Warehouses[wh]
			value, _ := c.Value.Round(2).Float64()
			for _, v := range []interface{}{c.Class, c.Stock, value} {
				if err := setCell(f, sheetName, col, row, v); err != nil {
					return err
				}
				col++
			}
		}
	}

	return f.Write(w)
}

func setCell(f *excelize.File, sheetName string, col, row int, v interface{}) error {
	ref, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheetName, ref, v)
}

// WritePolicyCSV re-exports a policy table after coercion, in its original row order
// and column layout.
func WritePolicyCSV(w io.Writer, table *TierTable) error {
	cw := csv.NewWriter(w)
	header := []string{"Tipo", "Vendas", "ABC", "Central", "calculo_Central",
		"Regional", "calculo_Regional", "Local", "calculo_Local"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, t := range table.Rows() {
		rec := []string{
			string(t.Type),
			strconv.Itoa(t.Threshold),
			t.Class,
			formatQuantity(t.Central.Value), string(t.Central.Mode),
			formatQuantity(t.Regional.Value), string(t.Regional.Mode),
			formatQuantity(t.Local.Value), string(t.Local.Mode),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write policy row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
