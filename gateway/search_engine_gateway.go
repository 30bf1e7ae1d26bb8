package gateway

import (
	"context"

	"video-indexer/domain"
	"video-indexer/driver"
)

// SearchDriver is the driver-side seam the gateway maps over.
type SearchDriver interface {
	EnsureIndex(ctx context.Context) error
	IndexDocument(ctx context.Context, doc driver.IndexDocumentDriver) error
	DeleteDocument(ctx context.Context, videoID int) (bool, error)
	BulkIndex(ctx context.Context, docs []driver.IndexDocumentDriver) ([]driver.IndexDocumentDriver, error)
	Search(ctx context.Context, query string, categoryNames []string, limit int) ([]driver.IndexDocumentDriver, error)
	SearchPrefix(ctx context.Context, query string, limit int) ([]driver.IndexDocumentDriver, error)
}

// SearchEngineGateway adapts the search driver to the domain port,
// translating documents and wrapping errors.
type SearchEngineGateway struct {
	driver SearchDriver
}

func NewSearchEngineGateway(driver SearchDriver) *SearchEngineGateway {
	return &SearchEngineGateway{driver: driver}
}

func (g *SearchEngineGateway) EnsureIndex(ctx context.Context) error {
	if err := g.driver.EnsureIndex(ctx); err != nil {
		return &domain.SearchEngineError{Op: "EnsureIndex", Err: err.Error()}
	}
	return nil
}

func (g *SearchEngineGateway) IndexDocument(ctx context.Context, doc domain.IndexDocument) error {
	if err := g.driver.IndexDocument(ctx, toDriverDocument(doc)); err != nil {
		return &domain.SearchEngineError{Op: "IndexDocument", Err: err.Error()}
	}
	return nil
}

func (g *SearchEngineGateway) DeleteDocument(ctx context.Context, videoID int) (bool, error) {
	deleted, err := g.driver.DeleteDocument(ctx, videoID)
	if err != nil {
		return false, &domain.SearchEngineError{Op: "DeleteDocument", Err: err.Error()}
	}
	return deleted, nil
}

func (g *SearchEngineGateway) BulkIndex(ctx context.Context, docs []domain.IndexDocument) ([]domain.IndexDocument, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	driverDocs := make([]driver.IndexDocumentDriver, len(docs))
	for i, doc := range docs {
		driverDocs[i] = toDriverDocument(doc)
	}

	indexed, err := g.driver.BulkIndex(ctx, driverDocs)
	if err != nil {
		return nil, &domain.SearchEngineError{Op: "BulkIndex", Err: err.Error()}
	}

	result := make([]domain.IndexDocument, len(indexed))
	for i, doc := range indexed {
		result[i] = toDomainDocument(doc)
	}
	return result, nil
}

func (g *SearchEngineGateway) Search(ctx context.Context, query string, categoryNames []string, limit int) ([]domain.IndexDocument, error) {
	driverDocs, err := g.driver.Search(ctx, query, categoryNames, limit)
	if err != nil {
		return nil, &domain.SearchEngineError{Op: "Search", Err: err.Error()}
	}
	return toDomainDocuments(driverDocs), nil
}

func (g *SearchEngineGateway) SearchPrefix(ctx context.Context, query string, limit int) ([]domain.IndexDocument, error) {
	driverDocs, err := g.driver.SearchPrefix(ctx, query, limit)
	if err != nil {
		return nil, &domain.SearchEngineError{Op: "SearchPrefix", Err: err.Error()}
	}
	return toDomainDocuments(driverDocs), nil
}

func toDriverDocument(doc domain.IndexDocument) driver.IndexDocumentDriver {
	return driver.IndexDocumentDriver{
		VideoID:          doc.VideoID,
		VideoName:        doc.VideoName,
		VideoDescription: doc.VideoDescription,
		VideoURL:         doc.VideoURL,
		VideoTagNames:    doc.VideoTagNames,
		CategoryName:     doc.CategoryName,
		UserName:         doc.UserName,
		VideoUploadDate:  doc.VideoUploadDate,
		VideoUpdatedDate: doc.VideoUpdatedDate,
	}
}

func toDomainDocument(doc driver.IndexDocumentDriver) domain.IndexDocument {
	return domain.IndexDocument{
		VideoID:          doc.VideoID,
		VideoName:        doc.VideoName,
		VideoDescription: doc.VideoDescription,
		VideoURL:         doc.VideoURL,
		VideoTagNames:    doc.VideoTagNames,
		CategoryName:     doc.CategoryName,
		UserName:         doc.UserName,
		VideoUploadDate:  doc.VideoUploadDate,
		VideoUpdatedDate: doc.VideoUpdatedDate,
	}
}

func toDomainDocuments(docs []driver.IndexDocumentDriver) []domain.IndexDocument {
	result := make([]domain.IndexDocument, len(docs))
	for i, doc := range docs {
		result[i] = toDomainDocument(doc)
	}
	return result
}
