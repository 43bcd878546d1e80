// Package costs manages the product-name to unit-cost mapping and its
// persistent store. The mapping is session-scoped mutable state: loaded once
// at startup, read by every aggregation run, and persisted by full overwrite
// on each save.
package costs

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Mapping maps a product name (exact, case-sensitive) to its unit cost.
type Mapping map[string]float64

// Cost looks up the unit cost for a product. Unknown products cost 0; the
// zero shows up in the cost table so under-costed margins stay visible.
func (m Mapping) Cost(productName string) float64 {
	return m[productName]
}

// Clone returns an independent copy of the mapping.
func (m Mapping) Clone() Mapping {
	clone := make(Mapping, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

// ProductNames returns the product names in sorted order.
func (m Mapping) ProductNames() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Store is the persistence collaborator for the cost mapping. Save replaces
// the store's full contents (clear-then-write); there is no incremental
// update.
type Store interface {
	Load(ctx context.Context) (Mapping, error)
	Save(ctx context.Context, m Mapping) error
}

// MarshalJSON-friendly export: an indented UTF-8 object keyed by product
// name, matching the exchange format users pass between sessions.
func ExportJSON(m Mapping) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode cost mapping: %w", err)
	}
	return data, nil
}

// ImportJSON parses an exported cost file. Negative costs are rejected.
func ImportJSON(data []byte) (Mapping, error) {
	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode cost mapping: %w", err)
	}
	for name, cost := range m {
		if cost < 0 {
			return nil, fmt.Errorf("negative unit cost for product %q", name)
		}
	}
	if m == nil {
		m = Mapping{}
	}
	return m, nil
}
