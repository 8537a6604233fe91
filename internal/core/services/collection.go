package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
)

// Ensure CollectionService implements the interface.
var _ driving.CollectionService = (*CollectionService)(nil)

// CollectionService lists and drops named collections.
type CollectionService struct {
	vectors driven.VectorStoreProvider
}

// NewCollectionService creates a collection service.
func NewCollectionService(vectors driven.VectorStoreProvider) *CollectionService {
	return &CollectionService{vectors: vectors}
}

// List returns every collection with its counts.
func (s *CollectionService) List(ctx context.Context) ([]domain.CollectionInfo, error) {
	infos, err := s.vectors.Collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return infos, nil
}

// Drop removes a collection. Names are accepted with or without the prefix.
func (s *CollectionService) Drop(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}
	return s.vectors.DropCollection(ctx, domain.CollectionName(name))
}
