package driver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
)

// fakeES runs an httptest server impersonating Elasticsearch and returns
// a client pointed at it.
func fakeES(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The client refuses responses without the product header.
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestEnsureIndex_AlreadyExists(t *testing.T) {
	created := false
	client := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead && r.URL.Path == "/videos":
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPut && r.URL.Path == "/videos":
			created = true
			w.Write([]byte(`{"acknowledged":true}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	d := NewElasticsearchDriver(client, "videos", nil)
	if err := d.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("EnsureIndex() error = %v", err)
	}
	if created {
		t.Error("index recreated although it already exists")
	}
}

func TestEnsureIndex_Creates(t *testing.T) {
	var createBody map[string]any
	client := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead && r.URL.Path == "/videos":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut && r.URL.Path == "/videos":
			if err := json.NewDecoder(r.Body).Decode(&createBody); err != nil {
				t.Errorf("create body does not decode: %v", err)
			}
			w.Write([]byte(`{"acknowledged":true}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	d := NewElasticsearchDriver(client, "videos", nil)
	if err := d.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("EnsureIndex() error = %v", err)
	}
	if createBody == nil {
		t.Fatal("index was not created")
	}
	if _, ok := createBody["settings"]; !ok {
		t.Error("create body missing settings")
	}
	if _, ok := createBody["mappings"]; !ok {
		t.Error("create body missing mappings")
	}
}

func TestEnsureIndex_LostCreateRace(t *testing.T) {
	client := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"type":"resource_already_exists_exception"}}`))
		}
	})

	d := NewElasticsearchDriver(client, "videos", nil)
	if err := d.EnsureIndex(context.Background()); err != nil {
		t.Errorf("losing the create race must not error, got %v", err)
	}
}

func TestIndexDocument_KeyedByVideoID(t *testing.T) {
	var path string
	client := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"result":"created"}`))
	})

	d := NewElasticsearchDriver(client, "videos", nil)
	doc := IndexDocumentDriver{VideoID: 42, VideoName: "clip"}
	if err := d.IndexDocument(context.Background(), doc); err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}
	if path != "/videos/_doc/42" {
		t.Errorf("document path = %q, want /videos/_doc/42", path)
	}
}

func TestDeleteDocument(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantDeleted bool
		wantErr     bool
	}{
		{name: "deleted", status: http.StatusOK, body: `{"result":"deleted"}`, wantDeleted: true},
		{name: "already absent", status: http.StatusNotFound, body: `{"result":"not_found"}`, wantDeleted: false},
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"boom"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodDelete || r.URL.Path != "/videos/_doc/7" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			d := NewElasticsearchDriver(client, "videos", nil)
			deleted, err := d.DeleteDocument(context.Background(), 7)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("DeleteDocument() error = %v", err)
			}
			if deleted != tt.wantDeleted {
				t.Errorf("deleted = %v, want %v", deleted, tt.wantDeleted)
			}
		})
	}
}

func TestBulkIndex_PartialFailure(t *testing.T) {
	client := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/_bulk" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
		  "errors": true,
		  "items": [
		    {"index": {"_id": "1", "status": 201}},
		    {"index": {"_id": "2", "status": 400, "error": {"type": "mapper_parsing_exception", "reason": "bad field"}}},
		    {"index": {"_id": "3", "status": 200}}
		  ]
		}`))
	})

	d := NewElasticsearchDriver(client, "videos", nil)
	docs := []IndexDocumentDriver{{VideoID: 1}, {VideoID: 2}, {VideoID: 3}}

	indexed, err := d.BulkIndex(context.Background(), docs)
	if err != nil {
		t.Fatalf("BulkIndex() error = %v", err)
	}
	if len(indexed) != 2 {
		t.Fatalf("indexed %d documents, want 2", len(indexed))
	}
	if indexed[0].VideoID != 1 || indexed[1].VideoID != 3 {
		t.Errorf("accepted subset = %+v", indexed)
	}
}

func TestBulkIndex_Empty(t *testing.T) {
	client := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("empty bulk must not reach the server")
	})

	d := NewElasticsearchDriver(client, "videos", nil)
	indexed, err := d.BulkIndex(context.Background(), nil)
	if err != nil {
		t.Fatalf("BulkIndex() error = %v", err)
	}
	if len(indexed) != 0 {
		t.Errorf("indexed = %v, want none", indexed)
	}
}

func TestSearch_ParsesHits(t *testing.T) {
	var requestBody map[string]any
	client := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
			t.Errorf("search body does not decode: %v", err)
		}
		w.Write([]byte(`{
		  "hits": {"hits": [
		    {"_source": {"videoId": 5, "videoName": "lap records"}},
		    {"_source": {"videoId": 6, "videoName": "lap times"}}
		  ]}
		}`))
	})

	d := NewElasticsearchDriver(client, "videos", nil)
	docs, err := d.Search(context.Background(), "lap", nil, 20)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if docs[0].VideoID != 5 || docs[1].VideoName != "lap times" {
		t.Errorf("documents = %+v", docs)
	}
	if requestBody["size"] != float64(20) {
		t.Errorf("size = %v, want 20", requestBody["size"])
	}
}

func TestBuildSearchBody(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		categories []string
		wantKeys   []string
		wantSort   bool
	}{
		{
			name:     "browse newest first",
			wantSort: true,
		},
		{
			name:  "relevance only",
			query: "engine",
		},
		{
			name:       "filter only",
			categories: []string{"Vehicles", "Trucks"},
			wantSort:   true,
		},
		{
			name:       "relevance with filter",
			query:      "engine",
			categories: []string{"Vehicles"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := buildSearchBody(tt.query, tt.categories, 20)

			if body["size"] != 20 {
				t.Errorf("size = %v, want 20", body["size"])
			}
			_, hasSort := body["sort"]
			if hasSort != tt.wantSort {
				t.Errorf("sort present = %v, want %v", hasSort, tt.wantSort)
			}

			encoded, err := json.Marshal(body)
			if err != nil {
				t.Fatal(err)
			}
			raw := string(encoded)

			hasQuery := tt.query != ""
			hasFilter := len(tt.categories) > 0
			switch {
			case !hasQuery && !hasFilter:
				if !strings.Contains(raw, "match_all") {
					t.Errorf("browse body missing match_all: %s", raw)
				}
			case hasQuery && !hasFilter:
				if !strings.Contains(raw, "multi_match") || strings.Contains(raw, "terms") {
					t.Errorf("relevance body = %s", raw)
				}
			case !hasQuery && hasFilter:
				if !strings.Contains(raw, "categoryName.keyword") || strings.Contains(raw, "multi_match") {
					t.Errorf("filter body = %s", raw)
				}
			default:
				if !strings.Contains(raw, "multi_match") || !strings.Contains(raw, "categoryName.keyword") {
					t.Errorf("combined body = %s", raw)
				}
			}
		})
	}
}

func TestBuildSearchBody_BoostsAndFuzziness(t *testing.T) {
	body := buildSearchBody("Engine", nil, 20)
	encoded, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	raw := string(encoded)

	for _, want := range []string{"videoName^2", "videoDescription", "videoTagNames", `"fuzziness":"AUTO"`, `"lenient":true`, `"query":"engine"`} {
		if !strings.Contains(raw, want) {
			t.Errorf("search body missing %q: %s", want, raw)
		}
	}
}

func TestBuildSuggestBody(t *testing.T) {
	body := buildSuggestBody("Eng", 20)
	encoded, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	raw := string(encoded)

	for _, field := range []string{"videoName", "videoDescription", "categoryName", "videoTagNames"} {
		if !strings.Contains(raw, `{"prefix":{"`+field+`":"eng"}}`) {
			t.Errorf("suggest body missing prefix clause for %s: %s", field, raw)
		}
	}
	if !strings.Contains(raw, `"minimum_should_match":1`) {
		t.Errorf("suggest body missing minimum_should_match: %s", raw)
	}
}
