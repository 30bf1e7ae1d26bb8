package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"video-indexer/domain"
	"video-indexer/metrics"
	"video-indexer/port"
)

// searchResultLimit is the fixed page size served per query. There is no
// cursor pagination in this design.
const searchResultLimit = 20

const maxQueryLength = 1000

// SearchVideosUsecase serves relevance-ranked search with optional
// category-subtree filtering. It reads only from the index, never from
// the relational store, except to expand the category filter.
type SearchVideosUsecase struct {
	searchEngine port.SearchEngine
	categories   port.CategoryReader
	logger       *slog.Logger
}

// SearchResult carries the served page plus the filter actually applied.
type SearchResult struct {
	Query         string
	CategoryNames []string
	Documents     []domain.IndexDocument
	Total         int
}

func NewSearchVideosUsecase(searchEngine port.SearchEngine, categories port.CategoryReader, logger *slog.Logger) *SearchVideosUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchVideosUsecase{
		searchEngine: searchEngine,
		categories:   categories,
		logger:       logger,
	}
}

// Execute runs the search. An empty query with no category serves the
// newest-first browse view. A category name is expanded into the full
// subtree before filtering; an unknown category falls back to an
// unfiltered search rather than an empty result.
func (u *SearchVideosUsecase) Execute(ctx context.Context, query, categoryName string) (*SearchResult, error) {
	if len(query) > maxQueryLength {
		return nil, errors.New("query too long")
	}

	metrics.SearchTotal.Inc()
	start := time.Now()
	defer func() {
		metrics.SearchDuration.Observe(time.Since(start).Seconds())
	}()

	var expanded []string
	if categoryName != "" {
		categoryID, found, err := u.categories.CategoryIDByName(ctx, categoryName)
		if err != nil {
			return nil, err
		}
		if found {
			expanded, err = u.categories.SubtreeCategoryNames(ctx, categoryID)
			if err != nil {
				return nil, err
			}
		} else {
			u.logger.Warn("unknown category, searching unfiltered", "category", categoryName)
		}
	}

	documents, err := u.searchEngine.Search(ctx, query, expanded, searchResultLimit)
	if err != nil {
		return nil, err
	}

	return &SearchResult{
		Query:         query,
		CategoryNames: expanded,
		Documents:     documents,
		Total:         len(documents),
	}, nil
}
