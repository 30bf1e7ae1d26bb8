package gateway

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"video-indexer/domain"
)

// CategoryGateway reads the category hierarchy from the relational store.
type CategoryGateway struct {
	pool *pgxpool.Pool
}

func NewCategoryGateway(pool *pgxpool.Pool) *CategoryGateway {
	return &CategoryGateway{pool: pool}
}

func (g *CategoryGateway) CategoryIDByName(ctx context.Context, name string) (int, bool, error) {
	var id int
	err := g.pool.QueryRow(ctx,
		`SELECT category_id FROM categories WHERE category_name = $1`,
		name,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, &domain.RepositoryError{Op: "CategoryIDByName", Err: err.Error()}
	}
	return id, true, nil
}

// SubtreeCategoryNames expands a category into its own name plus all
// descendant names. Filtering on the bare parent name would wrongly
// exclude videos filed under child categories.
func (g *CategoryGateway) SubtreeCategoryNames(ctx context.Context, categoryID int) ([]string, error) {
	rows, err := g.pool.Query(ctx, `
		WITH RECURSIVE subtree AS (
			SELECT category_id, category_name
			FROM categories
			WHERE category_id = $1
			UNION ALL
			SELECT c.category_id, c.category_name
			FROM categories c
			JOIN subtree s ON c.parent_category_id = s.category_id
		)
		SELECT category_name FROM subtree`,
		categoryID,
	)
	if err != nil {
		return nil, &domain.RepositoryError{Op: "SubtreeCategoryNames", Err: err.Error()}
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &domain.RepositoryError{Op: "SubtreeCategoryNames", Err: err.Error()}
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.RepositoryError{Op: "SubtreeCategoryNames", Err: err.Error()}
	}
	return names, nil
}
