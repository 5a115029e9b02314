package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/drivelink/voicebot/internal/config"
)

// FirecrawlClient scrapes web pages to markdown through the Firecrawl
// scrape endpoint.
type FirecrawlClient struct {
	cfg        config.IngestConfig
	baseURL    string
	httpClient *http.Client
}

// NewFirecrawlClient creates a Firecrawl scrape client.
func NewFirecrawlClient(cfg config.IngestConfig) *FirecrawlClient {
	return &FirecrawlClient{
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.FirecrawlURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Page is one scraped document.
type Page struct {
	URL      string
	Title    string
	Markdown string
}

type scrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

type scrapeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string `json:"markdown"`
		Metadata struct {
			Title string `json:"title"`
		} `json:"metadata"`
	} `json:"data"`
}

// Scrape fetches one URL and returns its markdown rendition.
func (c *FirecrawlClient) Scrape(ctx context.Context, pageURL string) (*Page, error) {
	payload, err := json.Marshal(scrapeRequest{URL: pageURL, Formats: []string{"markdown"}})
	if err != nil {
		return nil, fmt.Errorf("marshal scrape request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/scrape", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build scrape request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.FirecrawlAPIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("firecrawl request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("[ingest] firecrawl status=%d body=%s", resp.StatusCode, body)
		return nil, fmt.Errorf("firecrawl returned status %d", resp.StatusCode)
	}

	var parsed scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode firecrawl response: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("firecrawl scrape unsuccessful for %s", pageURL)
	}
	if strings.TrimSpace(parsed.Data.Markdown) == "" {
		return nil, fmt.Errorf("firecrawl returned empty markdown for %s", pageURL)
	}

	return &Page{
		URL:      pageURL,
		Title:    parsed.Data.Metadata.Title,
		Markdown: parsed.Data.Markdown,
	}, nil
}
