package ingest

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Uploader pushes scraped documents into the assistant's vector store so the
// language model can cite them during turns.
type Uploader struct {
	client        openai.Client
	vectorStoreID string
}

// NewUploader creates a vector store uploader.
func NewUploader(apiKey, vectorStoreID string) *Uploader {
	return &Uploader{
		client:        openai.NewClient(option.WithAPIKey(apiKey)),
		vectorStoreID: vectorStoreID,
	}
}

// Upload stores one page as a file and attaches it to the vector store.
// Returns the uploaded file id.
func (u *Uploader) Upload(ctx context.Context, page *Page, filename string) (string, error) {
	file, err := u.client.Files.New(ctx, openai.FileNewParams{
		File:    openai.File(bytes.NewReader([]byte(page.Markdown)), filename, "text/markdown"),
		Purpose: openai.FilePurposeAssistants,
	})
	if err != nil {
		return "", fmt.Errorf("upload file %s: %w", filename, err)
	}

	_, err = u.client.VectorStores.Files.New(ctx, u.vectorStoreID, openai.VectorStoreFileNewParams{
		FileID: file.ID,
	})
	if err != nil {
		return "", fmt.Errorf("attach file %s to vector store: %w", file.ID, err)
	}

	log.Printf("[ingest] uploaded %s file=%s store=%s", page.URL, file.ID, u.vectorStoreID)
	return file.ID, nil
}
