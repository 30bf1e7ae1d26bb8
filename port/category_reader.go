package port

import "context"

// CategoryReader resolves categories and expands a category into its full
// subtree of names. The search engine's filter contract assumes it always
// receives the expanded set, never a bare parent name.
type CategoryReader interface {
	// CategoryIDByName returns (id, true) when the category exists.
	CategoryIDByName(ctx context.Context, name string) (int, bool, error)
	// SubtreeCategoryNames returns the category's own name plus the names
	// of all descendant categories, recursively.
	SubtreeCategoryNames(ctx context.Context, categoryID int) ([]string, error)
}
