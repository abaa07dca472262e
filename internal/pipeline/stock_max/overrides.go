package stock_max

// OverrideIndex looks up manual stock quantities by product label.
type OverrideIndex struct {
	rows       map[string]ManualOverride
	duplicates []string
}

// NewOverrideIndex indexes overrides by label; the first row for a label wins.
func NewOverrideIndex(overrides []ManualOverride) *OverrideIndex {
	idx := &OverrideIndex{rows: make(map[string]ManualOverride, len(overrides))}
	seenDup := make(map[string]bool)
	for _, o := range overrides {
		if _, exists := idx.rows[o.Label]; exists {
			if !seenDup[o.Label] {
				seenDup[o.Label] = true
				idx.duplicates = append(idx.duplicates, o.Label)
			}
			continue
		}
		idx.rows[o.Label] = o
	}
	return idx
}

// Quantity returns the forced quantity for a product at a warehouse. ok is false when the
// product has no override row.
func (o *OverrideIndex) Quantity(label, warehouse string) (qty float64, ok bool) {
	row, ok := o.rows[label]
	if !ok {
		return 0, false
	}
	return row.Quantity[warehouse], true
}

// Len is the number of distinct overridden products.
func (o *OverrideIndex) Len() int { return len(o.rows) }

// Duplicates lists labels that appeared on more than one row.
func (o *OverrideIndex) Duplicates() []string {
	return append([]string(nil), o.duplicates...)
}
