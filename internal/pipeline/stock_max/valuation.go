package stock_max

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/shopspring/decimal"
)

// ValueOf is quantity × unit price.
func ValueOf(quantity, unitPrice float64) decimal.Decimal {
	return decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(unitPrice))
}

// ClassValue is the stock value held in one classification at one warehouse.
type ClassValue struct {
	Class    string          `json:"class"`
	Products int             `json:"products"`
	Stock    float64         `json:"stock"`
	Value    decimal.Decimal `json:"value"`
}

// WarehouseClassReport groups stock value by classification for one warehouse.
type WarehouseClassReport struct {
	Warehouse string       `json:"warehouse"`
	Classes   []ClassValue `json:"classes"`
}

// WarehouseValue is the total stock and value held at one warehouse.
type WarehouseValue struct {
	Warehouse string          `json:"warehouse"`
	Tier      WarehouseTier   `json:"tier"`
	Stock     float64         `json:"stock"`
	Value     decimal.Decimal `json:"value"`
}

// WarehouseReport is the per-warehouse view plus the network total.
type WarehouseReport struct {
	Warehouses []WarehouseValue `json:"warehouses"`
	TotalStock float64          `json:"total_stock"`
	TotalValue decimal.Decimal  `json:"total_value"`
}

// ReportByClassification sums stock value by classification label, per warehouse.
// Classes are listed alphabetically, so "F" comes last after A..E.
func ReportByClassification(result *Result) []WarehouseClassReport {
	out := make([]WarehouseClassReport, 0, len(result.Topology.Names()))
	for _, wh := range result.Topology.Names() {
		byClass := make(map[string]*ClassValue)
		for _, p := range result.Products {
			cell, ok := p.Warehouses[wh]
			if !ok {
				continue
			}
			cv, ok := byClass[cell.Class]
			if !ok {
				cv = &ClassValue{Class: cell.Class, Value: decimal.Zero}
				byClass[cell.Class] = cv
			}
			cv.Products++
			cv.Stock += cell.Stock
			cv.Value = cv.Value.Add(cell.Value)
		}

		classes := make([]ClassValue, 0, len(byClass))
		for _, cv := range byClass {
			classes = append(classes, *cv)
		}
		sort.Slice(classes, func(i, j int) bool { return classes[i].Class < classes[j].Class })
		out = append(out, WarehouseClassReport{Warehouse: wh, Classes: classes})
	}
	return out
}

// ReportByWarehouse sums stock and value per warehouse.
func ReportByWarehouse(result *Result) WarehouseReport {
	report := WarehouseReport{TotalValue: decimal.Zero}
	for _, w := range result.Topology.Warehouses() {
		wv := WarehouseValue{Warehouse: w.Name, Tier: w.Tier, Value: decimal.Zero}
		for _, p := range result.Products {
			cell := p.Warehouses[w.Name]
			wv.Stock += cell.Stock
			wv.Value = wv.Value.Add(cell.Value)
		}
		report.Warehouses = append(report.Warehouses, wv)
		report.TotalStock += wv.Stock
		report.TotalValue = report.TotalValue.Add(wv.Value)
	}
	return report
}

// WriteReportText prints both reports as aligned text, amounts in Portuguese notation.
func WriteReportText(w io.Writer, result *Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintln(tw, "Armazém\tTipo\tStock\tValor\t")
	byWarehouse := ReportByWarehouse(result)
	for _, wv := range byWarehouse.Warehouses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", wv.Warehouse, wv.Tier,
			formatPTFloat(wv.Stock, 0), formatPTFloat(wv.Value.InexactFloat64(), 2))
	}
	fmt.Fprintf(tw, "Total\t\t%s\t%s\t\n",
		formatPTFloat(byWarehouse.TotalStock, 0), formatPTFloat(byWarehouse.TotalValue.InexactFloat64(), 2))
	fmt.Fprintln(tw, "\t\t\t\t")

	fmt.Fprintln(tw, "Armazém\tClasse\tProdutos\tStock\tValor\t")
	for _, report := range ReportByClassification(result) {
		for _, cv := range report.Classes {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t\n", report.Warehouse, cv.Class, cv.Products,
				formatPTFloat(cv.Stock, 0), formatPTFloat(cv.Value.InexactFloat64(), 2))
		}
	}
	return tw.Flush()
}
