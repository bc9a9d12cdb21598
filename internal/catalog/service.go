package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gerai-erp/gerai/internal/shared"
)

// Service exposes catalog reads to other modules.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolve looks up the given item ids within one store. The returned map
// contains an entry per item that exists AND belongs to the store; callers
// decide what a missing entry means. Quantities are read live, never cached,
// because they are snapshotted into count documents at write time.
func (s *Service) Resolve(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]Item, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]Item{}, nil
	}
	items, err := s.repo.GetByIDs(ctx, storeID, ids)
	if err != nil {
		return nil, fmt.Errorf("catalog: resolve items: %w", err)
	}
	resolved := make(map[uuid.UUID]Item, len(items))
	for _, it := range items {
		resolved[it.ID] = it
	}
	return resolved, nil
}

// ListByStore returns every active item of a store.
func (s *Service) ListByStore(ctx context.Context, storeID uuid.UUID) ([]Item, error) {
	items, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list store items: %w", err)
	}
	return items, nil
}

// List returns a filtered, paginated catalog listing.
func (s *Service) List(ctx context.Context, storeID uuid.UUID, filters ListFilters) ([]Item, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, storeID, filters)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("catalog: list items: %w", err)
	}
	return items, shared.NewPagination(filters.Page, filters.PerPage, total), nil
}
