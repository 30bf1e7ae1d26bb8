package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"video-indexer/domain"
)

// IndexDocumentDriver mirrors the index document at the driver boundary.
// Field names are the index field names; the dynamic template maps every
// string here to text + .keyword automatically.
type IndexDocumentDriver struct {
	VideoID          int       `json:"videoId"`
	VideoName        string    `json:"videoName"`
	VideoDescription string    `json:"videoDescription"`
	VideoURL         string    `json:"videoUrl"`
	VideoTagNames    []string  `json:"videoTagNames"`
	CategoryName     string    `json:"categoryName"`
	UserName         string    `json:"userName"`
	VideoUploadDate  time.Time `json:"videoUploadDate"`
	VideoUpdatedDate time.Time `json:"videoUpdatedDate"`
}

// indexSettings configures the partial-match schema: an edge n-gram
// tokenizer (2..10 chars, letters+digits) behind a custom analyzer, and a
// dynamic template giving every string field the analyzed form plus an
// exact-match .keyword sub-field. This is what makes type-ahead partial
// matching work without per-field manual mappings.
const indexSettings = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 1,
    "analysis": {
      "tokenizer": {
        "edge_ngram_tokenizer": {
          "type": "edge_ngram",
          "min_gram": 2,
          "max_gram": 10,
          "token_chars": ["letter", "digit"]
        }
      },
      "analyzer": {
        "partial_search_analyzer": {
          "type": "custom",
          "tokenizer": "edge_ngram_tokenizer",
          "filter": ["lowercase", "asciifolding"]
        }
      }
    }
  },
  "mappings": {
    "dynamic_templates": [
      {
        "all_strings_as_text_and_keyword": {
          "match_mapping_type": "string",
          "match": "*",
          "mapping": {
            "type": "text",
            "analyzer": "partial_search_analyzer",
            "fields": {
              "keyword": {"type": "keyword"}
            }
          }
        }
      }
    ]
  }
}`

// ElasticsearchDriver performs index writes and queries against a single
// index. The client is a process-wide singleton safe for concurrent use.
type ElasticsearchDriver struct {
	client *elasticsearch.Client
	index  string
	logger *slog.Logger
}

func NewElasticsearchDriver(client *elasticsearch.Client, index string, logger *slog.Logger) *ElasticsearchDriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ElasticsearchDriver{
		client: client,
		index:  index,
		logger: logger,
	}
}

// EnsureIndex creates the index with the partial-match schema if it does
// not exist yet. Losing a create race to another process instance counts
// as success.
func (d *ElasticsearchDriver) EnsureIndex(ctx context.Context) error {
	res, err := d.client.Indices.Exists(
		[]string{d.index},
		d.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return &domain.DriverError{Op: "EnsureIndex", Err: err.Error()}
	}
	defer res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	createRes, err := d.client.Indices.Create(
		d.index,
		d.client.Indices.Create.WithBody(strings.NewReader(indexSettings)),
		d.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return &domain.DriverError{Op: "EnsureIndex", Err: err.Error()}
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		body, _ := io.ReadAll(createRes.Body)
		if bytes.Contains(body, []byte("resource_already_exists_exception")) {
			return nil
		}
		return &domain.DriverError{
			Op:  "EnsureIndex",
			Err: fmt.Sprintf("create index [%s]: %s", createRes.Status(), body),
		}
	}

	d.logger.Info("search index created", "index", d.index)
	return nil
}

// IndexDocument upserts a single document keyed by video id. Using the
// video id as document id makes retries overwrite instead of duplicate.
func (d *ElasticsearchDriver) IndexDocument(ctx context.Context, doc IndexDocumentDriver) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return &domain.DriverError{Op: "IndexDocument", Err: err.Error()}
	}

	res, err := d.client.Index(
		d.index,
		bytes.NewReader(body),
		d.client.Index.WithDocumentID(strconv.Itoa(doc.VideoID)),
		d.client.Index.WithContext(ctx),
	)
	if err != nil {
		return &domain.DriverError{Op: "IndexDocument", Err: err.Error()}
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return &domain.DriverError{
			Op:  "IndexDocument",
			Err: fmt.Sprintf("index %d [%s]: %s", doc.VideoID, res.Status(), body),
		}
	}
	return nil
}

// DeleteDocument removes a document by video id. A missing document is
// not an error: the delete's goal state is already reached.
func (d *ElasticsearchDriver) DeleteDocument(ctx context.Context, videoID int) (bool, error) {
	res, err := d.client.Delete(
		d.index,
		strconv.Itoa(videoID),
		d.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return false, &domain.DriverError{Op: "DeleteDocument", Err: err.Error()}
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return false, nil
	}
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return false, &domain.DriverError{
			Op:  "DeleteDocument",
			Err: fmt.Sprintf("delete %d [%s]: %s", videoID, res.Status(), body),
		}
	}
	return true, nil
}

type bulkItemResult struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

type bulkResponse struct {
	Errors bool                        `json:"errors"`
	Items  []map[string]bulkItemResult `json:"items"`
}

// BulkIndex upserts documents in one bulk request and returns the subset
// that was accepted. Per-item failures are logged and omitted; only a
// failure of the whole request is an error.
func (d *ElasticsearchDriver) BulkIndex(ctx context.Context, docs []IndexDocumentDriver) ([]IndexDocumentDriver, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	for _, doc := range docs {
		action := fmt.Sprintf(`{"index":{"_index":%q,"_id":%q}}`, d.index, strconv.Itoa(doc.VideoID))
		buf.WriteString(action)
		buf.WriteByte('\n')
		line, err := json.Marshal(doc)
		if err != nil {
			return nil, &domain.DriverError{Op: "BulkIndex", Err: err.Error()}
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	res, err := d.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		d.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return nil, &domain.DriverError{Op: "BulkIndex", Err: err.Error()}
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, &domain.DriverError{
			Op:  "BulkIndex",
			Err: fmt.Sprintf("bulk request [%s]: %s", res.Status(), body),
		}
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, &domain.DriverError{Op: "BulkIndex", Err: "decode bulk response: " + err.Error()}
	}

	// Items come back in request order.
	indexed := make([]IndexDocumentDriver, 0, len(docs))
	for i, item := range parsed.Items {
		if i >= len(docs) {
			break
		}
		result, ok := item["index"]
		if !ok || result.Error != nil || result.Status >= 300 {
			if ok && result.Error != nil {
				d.logger.Warn("bulk item rejected",
					"video_id", docs[i].VideoID,
					"type", result.Error.Type,
					"reason", result.Error.Reason,
				)
			}
			continue
		}
		indexed = append(indexed, docs[i])
	}
	return indexed, nil
}

type searchHit struct {
	Source IndexDocumentDriver `json:"_source"`
}

type searchResponse struct {
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

// Search runs the relevance query. categoryNames must be the already
// expanded subtree set; empty means no category filter.
func (d *ElasticsearchDriver) Search(ctx context.Context, query string, categoryNames []string, limit int) ([]IndexDocumentDriver, error) {
	return d.search(ctx, buildSearchBody(query, categoryNames, limit))
}

// SearchPrefix runs the autocomplete prefix query across the string
// fields.
func (d *ElasticsearchDriver) SearchPrefix(ctx context.Context, query string, limit int) ([]IndexDocumentDriver, error) {
	return d.search(ctx, buildSuggestBody(query, limit))
}

func (d *ElasticsearchDriver) search(ctx context.Context, body map[string]any) ([]IndexDocumentDriver, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, &domain.DriverError{Op: "Search", Err: err.Error()}
	}

	res, err := d.client.Search(
		d.client.Search.WithIndex(d.index),
		d.client.Search.WithBody(bytes.NewReader(encoded)),
		d.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, &domain.DriverError{Op: "Search", Err: err.Error()}
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return nil, &domain.DriverError{
			Op:  "Search",
			Err: fmt.Sprintf("search [%s]: %s", res.Status(), raw),
		}
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, &domain.DriverError{Op: "Search", Err: "decode search response: " + err.Error()}
	}

	docs := make([]IndexDocumentDriver, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		docs = append(docs, hit.Source)
	}
	return docs, nil
}

// buildSearchBody constructs the four-way query: match-all newest-first,
// relevance-only, filter-only, or relevance must + category filter. The
// category filter is a terms clause on the unanalyzed keyword sub-field,
// so it gates inclusion without touching relevance scores.
func buildSearchBody(query string, categoryNames []string, limit int) map[string]any {
	body := map[string]any{"size": limit}

	hasQuery := strings.TrimSpace(query) != ""
	hasFilter := len(categoryNames) > 0

	var textQuery map[string]any
	if hasQuery {
		textQuery = map[string]any{
			"multi_match": map[string]any{
				"query":     strings.ToLower(query),
				"fields":    []string{"videoName^2", "videoDescription", "videoTagNames"},
				"fuzziness": "AUTO",
				"lenient":   true,
			},
		}
	}

	var categoryFilter map[string]any
	if hasFilter {
		categoryFilter = map[string]any{
			"terms": map[string]any{
				"categoryName.keyword": categoryNames,
			},
		}
	}

	newestFirst := []any{
		map[string]any{"videoUploadDate": map[string]any{"order": "desc"}},
	}

	switch {
	case !hasQuery && !hasFilter:
		body["query"] = map[string]any{"match_all": map[string]any{}}
		body["sort"] = newestFirst
	case hasQuery && !hasFilter:
		body["query"] = textQuery
	case !hasQuery && hasFilter:
		body["query"] = map[string]any{
			"bool": map[string]any{"filter": []any{categoryFilter}},
		}
		body["sort"] = newestFirst
	default:
		body["query"] = map[string]any{
			"bool": map[string]any{
				"must":   []any{textQuery},
				"filter": []any{categoryFilter},
			},
		}
	}
	return body
}

// buildSuggestBody constructs the autocomplete query: OR'd prefix clauses
// across the string fields, at least one must match.
func buildSuggestBody(query string, limit int) map[string]any {
	prefix := strings.ToLower(query)
	fields := []string{"videoName", "videoDescription", "categoryName", "videoTagNames"}

	should := make([]any, 0, len(fields))
	for _, field := range fields {
		should = append(should, map[string]any{
			"prefix": map[string]any{field: prefix},
		})
	}

	return map[string]any{
		"size": limit,
		"query": map[string]any{
			"bool": map[string]any{
				"should":               should,
				"minimum_should_match": 1,
			},
		},
	}
}
