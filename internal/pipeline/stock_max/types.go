package stock_max

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andresuchdata/stockmax/internal/pipeline"
	"github.com/shopspring/decimal"
)

var (
	// ErrMissingTable is returned when one of the four input tables was not supplied.
	ErrMissingTable = pipeline.ErrMissingTable
	// ErrUnknownWarehouse is returned when a warehouse is not part of the topology.
	ErrUnknownWarehouse = errors.New("unknown warehouse")
	// ErrNoPolicyTiers is returned when the policy table has no row for a policy type.
	ErrNoPolicyTiers = errors.New("no policy tiers for policy type")
	// ErrMissingColumn is returned when an input table lacks a required column.
	ErrMissingColumn = errors.New("missing column")
	// ErrUnreadableTable is returned when an input file is not a usable CSV or XLSX table.
	ErrUnreadableTable = errors.New("unreadable input table")
	// ErrInvalidTopology is returned for a topology without exactly one central warehouse.
	ErrInvalidTopology = errors.New("invalid warehouse topology")
)

// NoClass is the classification given when sales fall below every tier.
const NoClass = "F"

// DefaultWeeksPerYear converts yearly sales into weekly sales.
const DefaultWeeksPerYear = 52

// WarehouseTier is the role a warehouse plays in the distribution network.
type WarehouseTier string

const (
	TierCentral  WarehouseTier = "Central"
	TierRegional WarehouseTier = "Regional"
	TierLocal    WarehouseTier = "Local"
)

// ParseWarehouseTier accepts the tier name case-insensitively.
func ParseWarehouseTier(s string) (WarehouseTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "central":
		return TierCentral, nil
	case "regional":
		return TierRegional, nil
	case "local":
		return TierLocal, nil
	}
	return "", fmt.Errorf("%w: unknown warehouse tier %q", ErrInvalidTopology, s)
}

// PolicyType selects between the two stocking strategies.
type PolicyType string

const (
	PolicyNormal PolicyType = "Normal"
	PolicyDireto PolicyType = "Direto"
)

// ParsePolicyType returns false for anything other than Normal or Direto.
func ParsePolicyType(s string) (PolicyType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return PolicyNormal, true
	case "direto":
		return PolicyDireto, true
	}
	return "", false
}

// CalcMode is how a tier value is turned into a quantity.
type CalcMode string

const (
	ModeWeeksOfSales CalcMode = "sm" // semanas: value is a number of weeks of sales
	ModeFixedUnits   CalcMode = "un" // unidades: value is already a unit count
)

// ParseCalcMode maps the policy table spelling to a mode. Unknown spellings fall back to
// fixed units and report ok=false so the loader can warn.
func ParseCalcMode(s string) (mode CalcMode, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sm", "semanas", "semana", "weeks":
		return ModeWeeksOfSales, true
	case "un", "unidades", "unidade", "units":
		return ModeFixedUnits, true
	}
	return ModeFixedUnits, false
}

// Warehouse is one named warehouse and its tier.
type Warehouse struct {
	Name string
	Tier WarehouseTier
}

// Topology is the ordered warehouse configuration. Order drives output column order.
type Topology struct {
	warehouses []Warehouse
	index      map[string]int
	central    string
}

// NewTopology validates the warehouse list: names must be unique and exactly one
// warehouse must be Central.
func NewTopology(warehouses []Warehouse) (*Topology, error) {
	if len(warehouses) == 0 {
		return nil, fmt.Errorf("%w: no warehouses", ErrInvalidTopology)
	}
	t := &Topology{
		warehouses: make([]Warehouse, 0, len(warehouses)),
		index:      make(map[string]int, len(warehouses)),
	}
	for _, w := range warehouses {
		name := strings.TrimSpace(w.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: empty warehouse name", ErrInvalidTopology)
		}
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("%w: duplicate warehouse %q", ErrInvalidTopology, name)
		}
		switch w.Tier {
		case TierCentral, TierRegional, TierLocal:
		default:
			return nil, fmt.Errorf("%w: warehouse %q has unknown tier %q", ErrInvalidTopology, name, w.Tier)
		}
		if w.Tier == TierCentral {
			if t.central != "" {
				return nil, fmt.Errorf("%w: both %q and %q are central", ErrInvalidTopology, t.central, name)
			}
			t.central = name
		}
		t.index[name] = len(t.warehouses)
		t.warehouses = append(t.warehouses, Warehouse{Name: name, Tier: w.Tier})
	}
	if t.central == "" {
		return nil, fmt.Errorf("%w: no central warehouse", ErrInvalidTopology)
	}
	return t, nil
}

// DefaultTopology is the network the tool was built for.
func DefaultTopology() *Topology {
	t, err := NewTopology([]Warehouse{
		{"Braga", TierLocal},
		{"Porto", TierLocal},
		{"Coimbra", TierLocal},
		{"Lisboa", TierRegional},
		{"SMFeira", TierCentral},
		{"Lousada", TierLocal},
		{"Seixal", TierLocal},
		{"Albergaria", TierLocal},
		{"Sintra", TierLocal},
	})
	if err != nil {
		panic(err)
	}
	return t
}

// Warehouses returns the warehouses in configured order.
func (t *Topology) Warehouses() []Warehouse {
	out := make([]Warehouse, len(t.warehouses))
	copy(out, t.warehouses)
	return out
}

// Names returns the warehouse names in configured order.
func (t *Topology) Names() []string {
	names := make([]string, len(t.warehouses))
	for i, w := range t.warehouses {
		names[i] = w.Name
	}
	return names
}

// Tier looks up a warehouse tier. Unknown names are a configuration error.
func (t *Topology) Tier(name string) (WarehouseTier, error) {
	i, ok := t.index[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownWarehouse, name)
	}
	return t.warehouses[i].Tier, nil
}

// Central returns the name of the central warehouse.
func (t *Topology) Central() string {
	return t.central
}

// String renders the topology in the same "Name:Tier,..." form the config accepts.
func (t *Topology) String() string {
	parts := make([]string, len(t.warehouses))
	for i, w := range t.warehouses {
		parts[i] = w.Name + ":" + string(w.Tier)
	}
	return strings.Join(parts, ",")
}

// SalesRecord is one product row of the sales table.
type SalesRecord struct {
	Label       string             // Rótulos de Linha
	TypeDesc    string             // Tipodesc
	VehicleLoad float64            // QtVeiculo
	UnitPrice   float64            // unit price used for valuation
	Sales       map[string]float64 // warehouse -> sales count

	// Cells holds the raw input row, aligned with SalesTable.Header.
	Cells []string
}

// TotalSales sums sales across the given warehouses.
func (r *SalesRecord) TotalSales(warehouses []string) float64 {
	var total float64
	for _, w := range warehouses {
		total += r.Sales[w]
	}
	return total
}

// SalesTable is the loaded sales input.
type SalesTable struct {
	Header  []string
	Records []SalesRecord
}

// TierRule is the (value, calculation mode) pair for one warehouse tier.
type TierRule struct {
	Value float64
	Mode  CalcMode
}

// PolicyTier is one row of the stock policy table.
type PolicyTier struct {
	Type      PolicyType
	Threshold int // minimum sales (Vendas) to qualify
	Class     string
	Central   TierRule
	Regional  TierRule
	Local     TierRule
}

// Rule returns the rule for a warehouse tier.
func (p PolicyTier) Rule(tier WarehouseTier) (TierRule, error) {
	switch tier {
	case TierCentral:
		return p.Central, nil
	case TierRegional:
		return p.Regional, nil
	case TierLocal:
		return p.Local, nil
	}
	return TierRule{}, fmt.Errorf("%w: no rule for tier %q", ErrInvalidTopology, tier)
}

// LimitRule is one row of the limit table, keyed by product type description.
type LimitRule struct {
	TypeDesc string
	MinSales map[string]float64 // warehouse -> minimum sales to stock there
	Direto   bool               // Stock Direto == 1
}

// ManualOverride is one row of the manual stock table, keyed by product label.
type ManualOverride struct {
	Label    string
	Quantity map[string]float64 // warehouse -> forced quantity
}

// Tables bundles the four loaded inputs.
type Tables struct {
	Sales     *SalesTable
	Policy    *TierTable
	Limits    *LimitIndex
	Overrides *OverrideIndex
}

// WarehouseResult holds the derived values for one (product, warehouse) cell.
type WarehouseResult struct {
	Sales float64
	Class string
	Stock float64
	Value decimal.Decimal
}

// ProductResult is a sales record with its per-warehouse results attached.
type ProductResult struct {
	Record     *SalesRecord
	Warehouses map[string]WarehouseResult
}

// Result is the full output of one computation.
type Result struct {
	Header     []string // sales table header, carried into the export
	Topology   *Topology
	Products   []ProductResult
	Unmapped   []string // product types missing from the limit table
	Duplicates []string // limit or override keys that appeared more than once

	// LoadWarnings are non-fatal problems found while reading the inputs.
	LoadWarnings []string
}

// Warnings lists load warnings followed by the unmapped product types, if any.
func (r *Result) Warnings() []string {
	out := append([]string(nil), r.LoadWarnings...)
	if len(r.Unmapped) > 0 {
		out = append(out, "Tipodesc not found in limit table: "+strings.Join(r.Unmapped, ", "))
	}
	return out
}
