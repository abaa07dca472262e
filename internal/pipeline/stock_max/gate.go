package stock_max

import "sort"

// LimitIndex looks up limit rules by product type description.
type LimitIndex struct {
	rules      map[string]LimitRule
	order      []string
	duplicates []string
}

// NewLimitIndex indexes rules by TypeDesc. When a type appears more than once the first
// row wins and the type is reported by Duplicates.
func NewLimitIndex(rules []LimitRule) *LimitIndex {
	idx := &LimitIndex{rules: make(map[string]LimitRule, len(rules))}
	seenDup := make(map[string]bool)
	for _, r := range rules {
		if _, exists := idx.rules[r.TypeDesc]; exists {
			if !seenDup[r.TypeDesc] {
				seenDup[r.TypeDesc] = true
				idx.duplicates = append(idx.duplicates, r.TypeDesc)
			}
			continue
		}
		idx.rules[r.TypeDesc] = r
		idx.order = append(idx.order, r.TypeDesc)
	}
	return idx
}

// Lookup returns the rule for a product type.
func (l *LimitIndex) Lookup(typeDesc string) (LimitRule, bool) {
	r, ok := l.rules[typeDesc]
	return r, ok
}

// Len is the number of distinct product types.
func (l *LimitIndex) Len() int { return len(l.order) }

// Duplicates lists types that appeared on more than one row.
func (l *LimitIndex) Duplicates() []string {
	return append([]string(nil), l.duplicates...)
}

// UsesDireto reports whether any rule selects the Direto policy.
func (l *LimitIndex) UsesDireto() bool {
	for _, r := range l.rules {
		if r.Direto {
			return true
		}
	}
	return false
}

// Unmapped returns the distinct product types of records that have no limit rule, sorted.
func (l *LimitIndex) Unmapped(records []SalesRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for i := range records {
		td := records[i].TypeDesc
		if _, ok := l.rules[td]; ok || seen[td] {
			continue
		}
		seen[td] = true
		out = append(out, td)
	}
	sort.Strings(out)
	return out
}

// GateDecision is the outcome of the threshold gate for one (product, warehouse).
type GateDecision struct {
	Open     bool
	Policy   PolicyType
	Unmapped bool // closed because the product type has no limit rule
}

// Gate decides whether a product is stocked at a warehouse and under which policy.
type Gate struct {
	limits   *LimitIndex
	topology *Topology
}

// NewGate builds a gate over a limit index and topology.
func NewGate(limits *LimitIndex, topology *Topology) *Gate {
	return &Gate{limits: limits, topology: topology}
}

// Check applies the gate. A product type missing from the limit table closes the gate
// rather than failing; an unknown warehouse is an error.
func (g *Gate) Check(record *SalesRecord, warehouse string) (GateDecision, error) {
	if _, err := g.topology.Tier(warehouse); err != nil {
		return GateDecision{}, err
	}
	rule, ok := g.limits.Lookup(record.TypeDesc)
	if !ok {
		return GateDecision{Unmapped: true}, nil
	}
	if record.Sales[warehouse] < rule.MinSales[warehouse] {
		return GateDecision{}, nil
	}
	policy := PolicyNormal
	if rule.Direto {
		policy = PolicyDireto
	}
	return GateDecision{Open: true, Policy: policy}, nil
}
