package usecase

import (
	"context"
	"strings"

	"video-indexer/domain"
	"video-indexer/port"
)

const (
	// suggestFetchLimit is how many documents the prefix query fetches
	// before suggestion extraction.
	suggestFetchLimit = 20
	// maxSuggestions caps the returned suggestion list.
	maxSuggestions = 10
	// maxSuggestionWords truncates long field values; a full description
	// sentence is unusable as a suggestion chip.
	maxSuggestionWords = 6
)

// SuggestVideosUsecase serves autocomplete suggestions from the index.
type SuggestVideosUsecase struct {
	searchEngine port.SearchEngine
}

func NewSuggestVideosUsecase(searchEngine port.SearchEngine) *SuggestVideosUsecase {
	return &SuggestVideosUsecase{searchEngine: searchEngine}
}

// Execute fetches the top prefix matches and extracts suggestion strings
// from the matching field values, shortened to at most six words,
// deduplicated, up to ten suggestions. Documents arrive in relevance
// order and are consumed in that order.
func (u *SuggestVideosUsecase) Execute(ctx context.Context, query string) ([]string, error) {
	prefix := strings.ToLower(strings.TrimSpace(query))
	if prefix == "" {
		return []string{}, nil
	}

	documents, err := u.searchEngine.SearchPrefix(ctx, prefix, suggestFetchLimit)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	suggestions := make([]string, 0, maxSuggestions)

	for _, doc := range documents {
		for _, value := range candidateValues(doc) {
			if !strings.HasPrefix(strings.ToLower(value), prefix) {
				continue
			}
			suggestion := shortenWords(value, maxSuggestionWords)
			key := strings.ToLower(suggestion)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			suggestions = append(suggestions, suggestion)
			if len(suggestions) >= maxSuggestions {
				return suggestions, nil
			}
		}
	}
	return suggestions, nil
}

// candidateValues lists the string fields a suggestion can be drawn
// from, in the same order the prefix query matches them.
func candidateValues(doc domain.IndexDocument) []string {
	values := make([]string, 0, 3+len(doc.VideoTagNames))
	values = append(values, doc.VideoName, doc.VideoDescription, doc.CategoryName)
	values = append(values, doc.VideoTagNames...)
	return values
}

// shortenWords keeps the first limit words of s and collapses any runs
// of whitespace.
func shortenWords(s string, limit int) string {
	words := strings.Fields(s)
	if len(words) > limit {
		words = words[:limit]
	}
	return strings.Join(words, " ")
}
