package service

import (
	"context"
	"sort"
	"strings"

	"github.com/taskmind/taskmind/internal/logger"
	"github.com/taskmind/taskmind/internal/vector"
)

// EntityTypes lists the values accepted as a search type filter.
var EntityTypes = []string{"task", "project", "comment"}

// RetrievalService answers similarity queries over the vector store.
type RetrievalService struct {
	store       *vector.Store
	defaultTopK int
	maxTopK     int
	logger      *logger.Logger
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(store *vector.Store, defaultTopK, maxTopK int, log *logger.Logger) *RetrievalService {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	if maxTopK <= 0 {
		maxTopK = 50
	}
	return &RetrievalService{
		store:       store,
		defaultTopK: defaultTopK,
		maxTopK:     maxTopK,
		logger:      log,
	}
}

// ValidEntityType reports whether t is an accepted type filter value.
func ValidEntityType(t string) bool {
	for _, e := range EntityTypes {
		if t == e {
			return true
		}
	}
	return false
}

// Search returns up to topK entries most similar to the query, best first.
// An empty typeFilter matches all entity types; otherwise only entries
// whose metadata type equals the filter are returned. topK outside
// [1, maxTopK] is clamped; zero falls back to the configured default.
func (s *RetrievalService) Search(ctx context.Context, query, typeFilter string, topK int) ([]vector.SearchResult, error) {
	if topK <= 0 {
		topK = s.defaultTopK
	}
	if topK > s.maxTopK {
		topK = s.maxTopK
	}
	typeFilter = strings.TrimSpace(typeFilter)

	// Over-fetch so post-filtering can still fill topK slots.
	fetch := topK
	if typeFilter != "" {
		fetch = topK * 4
	}

	results, err := s.store.Search(ctx, query, fetch)
	if err != nil {
		return nil, err
	}

	if typeFilter != "" {
		filtered := results[:0]
		for _, r := range results {
			if t, ok := r.Metadata["type"].(string); ok && t == typeFilter {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}

	// Store results arrive distance-ordered already; keep the contract
	// explicit in case a backend returns otherwise.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > topK {
		results = results[:topK]
	}

	logger.With(logger.Fields{
		logger.FieldCount: len(results),
		"type_filter":     typeFilter,
	}).Debug(ctx, "Similarity search completed")

	return results, nil
}
