package stock_max

import (
	"fmt"
	"sort"
)

// TierTable holds the policy tiers grouped by policy type, each group sorted by
// descending threshold. Sorting happens once, when the table is built.
type TierTable struct {
	rows   []PolicyTier // input order, used for re-export
	byType map[PolicyType][]PolicyTier
}

// NewTierTable groups and sorts tiers. Equal thresholds keep their input order.
func NewTierTable(tiers []PolicyTier) *TierTable {
	t := &TierTable{
		rows:   append([]PolicyTier(nil), tiers...),
		byType: make(map[PolicyType][]PolicyTier),
	}
	for _, tier := range tiers {
		t.byType[tier.Type] = append(t.byType[tier.Type], tier)
	}
	for _, group := range t.byType {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Threshold > group[j].Threshold
		})
	}
	return t
}

// Tiers returns the tiers of one policy type, highest threshold first.
func (t *TierTable) Tiers(policy PolicyType) []PolicyTier {
	return append([]PolicyTier(nil), t.byType[policy]...)
}

// Rows returns every tier in input order.
func (t *TierTable) Rows() []PolicyTier {
	return append([]PolicyTier(nil), t.rows...)
}

// Len is the number of tiers across all policy types.
func (t *TierTable) Len() int {
	return len(t.rows)
}

// match returns the first tier whose threshold is at or below sales.
func (t *TierTable) match(sales float64, policy PolicyType) (PolicyTier, bool) {
	for _, tier := range t.byType[policy] {
		if sales >= float64(tier.Threshold) {
			return tier, true
		}
	}
	return PolicyTier{}, false
}

// Classify returns the ABC label for a sales volume, or NoClass ("F") when the
// volume is below every tier of the policy type.
func (t *TierTable) Classify(sales float64, policy PolicyType) string {
	if tier, ok := t.match(sales, policy); ok {
		return tier.Class
	}
	return NoClass
}

// Resolve returns the tier that applies to a sales volume. When no tier qualifies the
// lowest-threshold tier is used so that every product still gets a stocking rule.
func (t *TierTable) Resolve(sales float64, policy PolicyType) (PolicyTier, error) {
	group := t.byType[policy]
	if len(group) == 0 {
		return PolicyTier{}, fmt.Errorf("%w: %s", ErrNoPolicyTiers, policy)
	}
	if tier, ok := t.match(sales, policy); ok {
		return tier, nil
	}
	return group[len(group)-1], nil
}
