package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"margincli/internal/costs"
	apperrors "margincli/internal/errors"
)

// CostService manages the product unit-cost mapping. It keeps an in-memory
// copy of the backing store and writes the full mapping back on every
// mutation. A failed save leaves the in-memory mapping unchanged.
type CostService struct {
	store  costs.Store
	logger *slog.Logger

	mu      sync.RWMutex
	mapping costs.Mapping
}

// NewCostService creates a cost service over the given store. The mapping
// starts empty until Reload is called.
func NewCostService(store costs.Store, logger *slog.Logger) *CostService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CostService{
		store:   store,
		logger:  logger.With(slog.String("service", "costs")),
		mapping: costs.Mapping{},
	}
}

// Reload replaces the in-memory mapping with the store contents.
func (cs *CostService) Reload(ctx context.Context) error {
	loaded, err := cs.store.Load(ctx)
	if err != nil {
		return apperrors.NewStorageError("failed to load cost mapping", err)
	}

	cs.mu.Lock()
	cs.mapping = loaded
	cs.mu.Unlock()

	cs.logger.InfoContext(ctx, "cost mapping reloaded",
		slog.Int("product_count", len(loaded)))
	return nil
}

// Mapping returns a copy of the current cost mapping.
func (cs *CostService) Mapping() costs.Mapping {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.mapping.Clone()
}

// Get returns the cost for a product and whether it is explicitly mapped.
func (cs *CostService) Get(productName string) (float64, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	cost, ok := cs.mapping[productName]
	return cost, ok
}

// Set stores the cost for one product and persists the full mapping.
func (cs *CostService) Set(ctx context.Context, productName string, cost float64) error {
	if productName == "" {
		return apperrors.NewAppValidationError("product name must not be empty")
	}
	if cost < 0 {
		return apperrors.NewAppValidationError(
			fmt.Sprintf("cost per unit must not be negative: %.2f", cost))
	}

	return cs.mutate(ctx, func(m costs.Mapping) {
		m[productName] = cost
	})
}

// Delete removes one product from the mapping and persists the result.
// Deleting an unmapped product is a no-op.
func (cs *CostService) Delete(ctx context.Context, productName string) error {
	return cs.mutate(ctx, func(m costs.Mapping) {
		delete(m, productName)
	})
}

// ReplaceAll swaps the whole mapping and persists it.
func (cs *CostService) ReplaceAll(ctx context.Context, mapping costs.Mapping) error {
	for name, cost := range mapping {
		if cost < 0 {
			return apperrors.NewAppValidationError(
				fmt.Sprintf("cost per unit must not be negative for %q: %.2f", name, cost))
		}
	}
	return cs.mutate(ctx, func(m costs.Mapping) {
		for name := range m {
			delete(m, name)
		}
		for name, cost := range mapping {
			m[name] = cost
		}
	})
}

// ExportJSON serializes the current mapping.
func (cs *CostService) ExportJSON() ([]byte, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return costs.ExportJSON(cs.mapping)
}

// ImportJSON parses a serialized mapping and installs it via ReplaceAll.
func (cs *CostService) ImportJSON(ctx context.Context, data []byte) (int, error) {
	mapping, err := costs.ImportJSON(data)
	if err != nil {
		return 0, apperrors.NewParsingError("failed to parse cost mapping", err)
	}
	if err := cs.ReplaceAll(ctx, mapping); err != nil {
		return 0, err
	}
	return len(mapping), nil
}

// mutate applies fn to a copy of the mapping, saves the copy, and only swaps
// it in once the save succeeded.
func (cs *CostService) mutate(ctx context.Context, fn func(costs.Mapping)) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	next := cs.mapping.Clone()
	fn(next)

	if err := cs.store.Save(ctx, next); err != nil {
		cs.logger.ErrorContext(ctx, "cost mapping save failed, keeping previous mapping",
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("failed to save cost mapping", err)
	}

	cs.mapping = next
	cs.logger.InfoContext(ctx, "cost mapping saved",
		slog.Int("product_count", len(next)))
	return nil
}
