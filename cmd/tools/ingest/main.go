package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/drivelink/voicebot/internal/config"
	"github.com/drivelink/voicebot/internal/service/ingest"
)

// ingest scrapes product pages to markdown and loads them into the
// assistant's vector store. URLs come from arguments or a list file with one
// URL per line (# lines are comments).
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] could not load .env, using system environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	listPath := flag.String("urls", "", "file with one URL per line")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall timeout")
	flag.Parse()

	urls := flag.Args()
	if *listPath != "" {
		fromFile, err := readURLList(*listPath)
		if err != nil {
			log.Fatalf("failed to read url list: %v", err)
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		flag.Usage()
		log.Fatal("no URLs given, pass them as arguments or via -urls")
	}

	if cfg.Ingest.FirecrawlAPIKey == "" {
		log.Fatal("FIRECRAWL_API_KEY is not set")
	}
	if cfg.Assistant.APIKey == "" || cfg.Ingest.VectorStoreID == "" {
		log.Fatal("OPENAI_API_KEY and OPENAI_VECTOR_STORE_ID are required for uploads")
	}

	scraper := ingest.NewFirecrawlClient(cfg.Ingest)
	uploader := ingest.NewUploader(cfg.Assistant.APIKey, cfg.Ingest.VectorStoreID)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var failed int
	for i, pageURL := range urls {
		log.Printf("scraping %s", pageURL)
		page, err := scraper.Scrape(ctx, pageURL)
		if err != nil {
			log.Printf("[WARN] scrape failed for %s: %v", pageURL, err)
			failed++
			continue
		}

		filename := fmt.Sprintf("page-%03d.md", i+1)
		if _, err := uploader.Upload(ctx, page, filename); err != nil {
			log.Printf("[WARN] upload failed for %s: %v", pageURL, err)
			failed++
		}
	}

	if failed > 0 {
		log.Fatalf("finished with %d of %d pages failed", failed, len(urls))
	}
	log.Printf("finished, %d pages ingested", len(urls))
}

func readURLList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}
