package domain

import "github.com/shopspring/decimal"

// WarehouseCell is the computed outcome of one product in one warehouse.
type WarehouseCell struct {
	Sales    float64         `json:"sales"`
	Class    string          `json:"class"`
	StockMax float64         `json:"stock_max"`
	Value    decimal.Decimal `json:"value"`
}

// ProductRow is one sales row with its per-warehouse results.
type ProductRow struct {
	Label       string                   `json:"label"`
	TypeDesc    string                   `json:"type_desc"`
	VehicleLoad float64                  `json:"vehicle_load"`
	UnitPrice   float64                  `json:"unit_price"`
	Warehouses  map[string]WarehouseCell `json:"warehouses"`
}

// ComputeResponse is returned by the compute endpoint.
type ComputeResponse struct {
	Warehouses []string     `json:"warehouses"`
	Products   []ProductRow `json:"products"`
	Unmapped   []string     `json:"unmapped,omitempty"`
	Warnings   []string     `json:"warnings,omitempty"`
}

type ClassTotal struct {
	Class    string          `json:"class"`
	Products int             `json:"products"`
	Stock    float64         `json:"stock"`
	Value    decimal.Decimal `json:"value"`
}

type WarehouseClassTotals struct {
	Warehouse string       `json:"warehouse"`
	Classes   []ClassTotal `json:"classes"`
}

type WarehouseTotal struct {
	Warehouse string          `json:"warehouse"`
	Tier      string          `json:"tier"`
	Stock     float64         `json:"stock"`
	Value     decimal.Decimal `json:"value"`
}

// ReportResponse aggregates stock and value by classification and by warehouse.
type ReportResponse struct {
	ByClassification []WarehouseClassTotals `json:"by_classification"`
	ByWarehouse      []WarehouseTotal       `json:"by_warehouse"`
	TotalStock       float64                `json:"total_stock"`
	TotalValue       decimal.Decimal        `json:"total_value"`
	Warnings         []string               `json:"warnings,omitempty"`
}
