package stock_max

import "testing"

func testTopology(t *testing.T) *Topology {
	t.Helper()
	topo, err := NewTopology([]Warehouse{
		{"Porto", TierLocal},
		{"Lisboa", TierRegional},
		{"SMFeira", TierCentral},
	})
	if err != nil {
		t.Fatalf("NewTopology: %v", err)
	}
	return topo
}

func weeks(v float64) TierRule { return TierRule{Value: v, Mode: ModeWeeksOfSales} }
func units(v float64) TierRule { return TierRule{Value: v, Mode: ModeFixedUnits} }

func sameRule(r TierRule) (TierRule, TierRule, TierRule) { return r, r, r }

func tier(policy PolicyType, threshold int, class string, rule TierRule) PolicyTier {
	c, r, l := sameRule(rule)
	return PolicyTier{Type: policy, Threshold: threshold, Class: class, Central: c, Regional: r, Local: l}
}

func openLimit(typeDesc string, direto bool) LimitRule {
	return LimitRule{
		TypeDesc: typeDesc,
		MinSales: map[string]float64{"Porto": 0, "Lisboa": 0, "SMFeira": 0},
		Direto:   direto,
	}
}

func newTables(records []SalesRecord, tiers []PolicyTier, limits []LimitRule, overrides []ManualOverride) Tables {
	return Tables{
		Sales:     &SalesTable{Header: []string{"Rótulos de Linha"}, Records: records},
		Policy:    NewTierTable(tiers),
		Limits:    NewLimitIndex(limits),
		Overrides: NewOverrideIndex(overrides),
	}
}

func newCalculator(t *testing.T, tables Tables) *StockCalculator {
	t.Helper()
	calc, err := NewStockCalculator(tables, CalculatorConfig{Topology: testTopology(t)})
	if err != nil {
		t.Fatalf("NewStockCalculator: %v", err)
	}
	return calc
}
