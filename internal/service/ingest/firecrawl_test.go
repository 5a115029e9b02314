package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/drivelink/voicebot/internal/config"
)

func TestScrapeParsesMarkdown(t *testing.T) {
	var gotAuth string
	var gotBody scrapeRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Write([]byte(`{"success":true,"data":{"markdown":"# Ariya\nAll-electric crossover.","metadata":{"title":"Nissan Ariya"}}}`))
	}))
	defer srv.Close()

	client := NewFirecrawlClient(config.IngestConfig{
		FirecrawlAPIKey: "fc-key",
		FirecrawlURL:    srv.URL,
	})

	page, err := client.Scrape(context.Background(), "https://example.com/ariya")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if page.Title != "Nissan Ariya" {
		t.Fatalf("expected title, got %q", page.Title)
	}
	if page.Markdown == "" {
		t.Fatal("expected markdown content")
	}
	if gotAuth != "Bearer fc-key" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotBody.URL != "https://example.com/ariya" {
		t.Fatalf("expected url in body, got %q", gotBody.URL)
	}
	if len(gotBody.Formats) != 1 || gotBody.Formats[0] != "markdown" {
		t.Fatalf("expected markdown format request, got %v", gotBody.Formats)
	}
}

func TestScrapeUnsuccessfulResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false}`))
	}))
	defer srv.Close()

	client := NewFirecrawlClient(config.IngestConfig{
		FirecrawlAPIKey: "fc-key",
		FirecrawlURL:    srv.URL,
	})

	if _, err := client.Scrape(context.Background(), "https://example.com/missing"); err == nil {
		t.Fatal("expected error for unsuccessful scrape")
	}
}
