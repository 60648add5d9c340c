package outline

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/documents.info" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Fatalf("unexpected content type %q", got)
		}

		body, err := ioutil.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("reading request body: %v", err)
		}
		var payload map[string]interface{}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		if payload["id"] != "doc-123" {
			t.Fatalf("unexpected document id %v", payload["id"])
		}

		w.Write([]byte(`{"data": {"id": "doc-123", "title": "Welcome", "text": "# Welcome", "url": "/doc/welcome-abc123"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")

	document, err := client.FetchDocument("doc-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if document.ID != "doc-123" {
		t.Fatalf("unexpected document id %q", document.ID)
	}
	if document.Title != "Welcome" {
		t.Fatalf("unexpected title %q", document.Title)
	}
	if got := document.FullURL(server.URL); got != server.URL+"/doc/welcome-abc123" {
		t.Fatalf("unexpected full url %q", got)
	}
}

func TestFetchDocumentNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")

	_, err := client.FetchDocument("missing")
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchDocumentsRankingThreshold(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/documents.search" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}

		body, err := ioutil.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("reading request body: %v", err)
		}
		var payload map[string]interface{}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		if payload["query"] != "rules" {
			t.Fatalf("unexpected query %v", payload["query"])
		}
		if payload["collectionId"] != "col-1" {
			t.Fatalf("unexpected collection id %v", payload["collectionId"])
		}

		w.Write([]byte(`{"data": [
			{"ranking": 1.2, "context": "the server rules", "document": {"id": "a", "title": "Rules"}},
			{"ranking": 0.3, "context": "barely related", "document": {"id": "b", "title": "Offtopic"}},
			{"ranking": 0.8, "context": "rule changes", "document": {"id": "c", "title": "Changelog"}}
		]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")

	results, err := client.SearchDocuments("rules", "col-1", 10, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results above threshold, got %d", len(results))
	}
	if results[0].Document.ID != "a" || results[1].Document.ID != "c" {
		t.Fatalf("unexpected result order: %q, %q", results[0].Document.ID, results[1].Document.ID)
	}
}

func TestSearchDocumentsEmptyOnNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")

	results, err := client.SearchDocuments("anything", "", 10, 0)
	if err != nil {
		t.Fatalf("expected no error on 404 search, got %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty results, got %d", len(results))
	}
}

func TestSearchDocumentsEmptyOnBadRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")

	results, err := client.SearchDocuments("???", "", 10, 0)
	if err != nil {
		t.Fatalf("expected no error on 400 search, got %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty results, got %d", len(results))
	}
}

func TestListDocuments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/documents.list" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}

		body, err := ioutil.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("reading request body: %v", err)
		}
		var payload map[string]interface{}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		if _, scoped := payload["collectionId"]; scoped {
			t.Fatalf("collection id should be omitted when empty")
		}

		w.Write([]byte(`{"data": [{"id": "a", "title": "One"}, {"id": "b", "title": "Two"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")

	documents, err := client.ListDocuments("", 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(documents))
	}
	if documents[1].Title != "Two" {
		t.Fatalf("unexpected title %q", documents[1].Title)
	}
}

func TestIsValidUUID(t *testing.T) {
	if !IsValidUUID("9f1c7cbe-3f0b-4d13-9d61-5f6a2ad9b1aa") {
		t.Fatal("expected valid uuid to pass")
	}
	if IsValidUUID("welcome-abc123") {
		t.Fatal("expected url slug to fail")
	}
	if IsValidUUID("") {
		t.Fatal("expected empty string to fail")
	}
}
