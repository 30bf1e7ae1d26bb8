package usecase

import (
	"context"

	"video-indexer/domain"
)

// mockSearchEngine records calls and serves canned results.
type mockSearchEngine struct {
	indexed       []domain.IndexDocument
	deleted       []int
	deleteReturn  bool
	bulkAccepted  []domain.IndexDocument
	searchDocs    []domain.IndexDocument
	searchQuery   string
	searchFilter  []string
	prefixDocs    []domain.IndexDocument
	prefixQueries []string
	err           error
}

func (m *mockSearchEngine) EnsureIndex(ctx context.Context) error {
	return m.err
}

func (m *mockSearchEngine) IndexDocument(ctx context.Context, doc domain.IndexDocument) error {
	if m.err != nil {
		return m.err
	}
	m.indexed = append(m.indexed, doc)
	return nil
}

func (m *mockSearchEngine) DeleteDocument(ctx context.Context, videoID int) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.deleted = append(m.deleted, videoID)
	return m.deleteReturn, nil
}

func (m *mockSearchEngine) BulkIndex(ctx context.Context, docs []domain.IndexDocument) ([]domain.IndexDocument, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.bulkAccepted != nil {
		return m.bulkAccepted, nil
	}
	return docs, nil
}

func (m *mockSearchEngine) Search(ctx context.Context, query string, categoryNames []string, limit int) ([]domain.IndexDocument, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.searchQuery = query
	m.searchFilter = categoryNames
	return m.searchDocs, nil
}

func (m *mockSearchEngine) SearchPrefix(ctx context.Context, query string, limit int) ([]domain.IndexDocument, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.prefixQueries = append(m.prefixQueries, query)
	return m.prefixDocs, nil
}

// mockCategoryReader serves a fixed name to id mapping and subtree.
type mockCategoryReader struct {
	ids      map[string]int
	subtrees map[int][]string
	err      error
}

func (m *mockCategoryReader) CategoryIDByName(ctx context.Context, name string) (int, bool, error) {
	if m.err != nil {
		return 0, false, m.err
	}
	id, ok := m.ids[name]
	return id, ok, nil
}

func (m *mockCategoryReader) SubtreeCategoryNames(ctx context.Context, categoryID int) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.subtrees[categoryID], nil
}

// mockCatalog serves a canned full-catalog scan.
type mockCatalog struct {
	docs []domain.IndexDocument
	err  error
}

func (m *mockCatalog) AllIndexDocuments(ctx context.Context) ([]domain.IndexDocument, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.docs, nil
}
