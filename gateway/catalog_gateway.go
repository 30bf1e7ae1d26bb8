package gateway

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"video-indexer/domain"
)

// CatalogGateway reads denormalized video metadata from the relational
// store for full index rebuilds. The index is a projection that can be
// rebuilt wholesale from this scan if it is ever lost.
type CatalogGateway struct {
	pool *pgxpool.Pool
}

func NewCatalogGateway(pool *pgxpool.Pool) *CatalogGateway {
	return &CatalogGateway{pool: pool}
}

func (g *CatalogGateway) AllIndexDocuments(ctx context.Context) ([]domain.IndexDocument, error) {
	rows, err := g.pool.Query(ctx, `
		SELECT v.video_id,
		       v.video_name,
		       COALESCE(v.video_description, ''),
		       v.video_url,
		       COALESCE(array_agg(t.tag_name) FILTER (WHERE t.tag_name IS NOT NULL), '{}'),
		       COALESCE(c.category_name, ''),
		       u.user_name,
		       v.video_upload_date,
		       v.video_updated_date
		FROM video_metadata v
		JOIN users u ON u.user_id = v.user_id
		LEFT JOIN categories c ON c.category_id = v.category_id
		LEFT JOIN video_metadata_tags vt ON vt.video_id = v.video_id
		LEFT JOIN tags t ON t.tag_id = vt.tag_id
		GROUP BY v.video_id, v.video_name, v.video_description, v.video_url,
		         c.category_name, u.user_name, v.video_upload_date, v.video_updated_date
		ORDER BY v.video_id`,
	)
	if err != nil {
		return nil, &domain.RepositoryError{Op: "AllIndexDocuments", Err: err.Error()}
	}
	defer rows.Close()

	var docs []domain.IndexDocument
	for rows.Next() {
		var doc domain.IndexDocument
		if err := rows.Scan(
			&doc.VideoID,
			&doc.VideoName,
			&doc.VideoDescription,
			&doc.VideoURL,
			&doc.VideoTagNames,
			&doc.CategoryName,
			&doc.UserName,
			&doc.VideoUploadDate,
			&doc.VideoUpdatedDate,
		); err != nil {
			return nil, &domain.RepositoryError{Op: "AllIndexDocuments", Err: err.Error()}
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.RepositoryError{Op: "AllIndexDocuments", Err: err.Error()}
	}
	return docs, nil
}
