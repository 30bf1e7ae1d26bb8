package gateway

import (
	"context"
	"errors"
	"testing"

	"video-indexer/domain"
	"video-indexer/driver"
)

// stubSearchDriver returns canned driver documents or a fixed error.
type stubSearchDriver struct {
	docs      []driver.IndexDocumentDriver
	bulkCalls int
	err       error
}

func (s *stubSearchDriver) EnsureIndex(ctx context.Context) error { return s.err }

func (s *stubSearchDriver) IndexDocument(ctx context.Context, doc driver.IndexDocumentDriver) error {
	return s.err
}

func (s *stubSearchDriver) DeleteDocument(ctx context.Context, videoID int) (bool, error) {
	return s.err == nil, s.err
}

func (s *stubSearchDriver) BulkIndex(ctx context.Context, docs []driver.IndexDocumentDriver) ([]driver.IndexDocumentDriver, error) {
	s.bulkCalls++
	if s.err != nil {
		return nil, s.err
	}
	return docs, nil
}

func (s *stubSearchDriver) Search(ctx context.Context, query string, categoryNames []string, limit int) ([]driver.IndexDocumentDriver, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.docs, nil
}

func (s *stubSearchDriver) SearchPrefix(ctx context.Context, query string, limit int) ([]driver.IndexDocumentDriver, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.docs, nil
}

func TestSearchEngineGateway_DocumentMapping(t *testing.T) {
	stub := &stubSearchDriver{
		docs: []driver.IndexDocumentDriver{
			{
				VideoID:       5,
				VideoName:     "clip",
				VideoTagNames: []string{"a", "b"},
				CategoryName:  "Vlogs",
				UserName:      "creator",
			},
		},
	}
	g := NewSearchEngineGateway(stub)

	docs, err := g.Search(context.Background(), "clip", nil, 20)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1", len(docs))
	}
	got := docs[0]
	if got.VideoID != 5 || got.VideoName != "clip" || got.CategoryName != "Vlogs" || got.UserName != "creator" {
		t.Errorf("mapped document = %+v", got)
	}
	if len(got.VideoTagNames) != 2 {
		t.Errorf("tags = %v", got.VideoTagNames)
	}
}

func TestSearchEngineGateway_ErrorWrapping(t *testing.T) {
	g := NewSearchEngineGateway(&stubSearchDriver{err: errors.New("cluster red")})
	ctx := context.Background()

	calls := []struct {
		name string
		call func() error
	}{
		{"EnsureIndex", func() error { return g.EnsureIndex(ctx) }},
		{"IndexDocument", func() error { return g.IndexDocument(ctx, domain.IndexDocument{VideoID: 1}) }},
		{"DeleteDocument", func() error { _, err := g.DeleteDocument(ctx, 1); return err }},
		{"BulkIndex", func() error { _, err := g.BulkIndex(ctx, []domain.IndexDocument{{VideoID: 1}}); return err }},
		{"Search", func() error { _, err := g.Search(ctx, "q", nil, 20); return err }},
		{"SearchPrefix", func() error { _, err := g.SearchPrefix(ctx, "q", 20); return err }},
	}

	for _, tt := range calls {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if err == nil {
				t.Fatal("expected error")
			}
			var engineErr *domain.SearchEngineError
			if !errors.As(err, &engineErr) {
				t.Fatalf("error type = %T, want *domain.SearchEngineError", err)
			}
			if engineErr.Op != tt.name {
				t.Errorf("Op = %q, want %q", engineErr.Op, tt.name)
			}
		})
	}
}

func TestSearchEngineGateway_BulkIndexEmpty(t *testing.T) {
	stub := &stubSearchDriver{}
	g := NewSearchEngineGateway(stub)

	indexed, err := g.BulkIndex(context.Background(), nil)
	if err != nil {
		t.Fatalf("BulkIndex() error = %v", err)
	}
	if len(indexed) != 0 {
		t.Errorf("indexed = %v", indexed)
	}
	if stub.bulkCalls != 0 {
		t.Error("empty bulk must not reach the driver")
	}
}
