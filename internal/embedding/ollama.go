package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"highlight-extractor/internal/models"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// OllamaEmbedder generates embeddings using Ollama API
type OllamaEmbedder struct {
	Client        *api.Client
	Model         string
	MaxRetries    int
	RetryDelay    time.Duration
	Timeout       time.Duration
	MaxConcurrent int
}

// NewOllamaEmbedder creates a new Ollama embedder. An empty host falls back
// to OLLAMA_HOST.
func NewOllamaEmbedder(host string, model string) (*OllamaEmbedder, error) {
	client, err := NewClient(host)
	if err != nil {
		return nil, err
	}

	return &OllamaEmbedder{
		Client:        client,
		Model:         model,
		MaxRetries:    3,
		RetryDelay:    time.Second,
		Timeout:       time.Second * 30,
		MaxConcurrent: 3,
	}, nil
}

// NewClient creates an Ollama API client for host, or for OLLAMA_HOST when
// host is empty
func NewClient(host string) (*api.Client, error) {
	hostURL := envconfig.Host()
	if host != "" {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ollama host: %w", err)
		}
		hostURL = u
	}
	return api.NewClient(hostURL, http.DefaultClient), nil
}

// EmbedText generates an embedding for a text
func (e *OllamaEmbedder) EmbedText(ctx context.Context, text string) ([]float64, error) {
	var embedding []float64
	var err error

	for retries := 0; retries <= e.MaxRetries; retries++ {
		if retries > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(retries) * e.RetryDelay):
			}
		}

		embedding, err = e.createEmbedding(ctx, text)
		if err == nil {
			return embedding, nil
		}
	}

	return nil, fmt.Errorf("failed to create embedding after %d retries: %w", e.MaxRetries, err)
}

// createEmbedding is a helper function to create a single embedding
func (e *OllamaEmbedder) createEmbedding(ctx context.Context, text string) ([]float64, error) {
	req := api.EmbeddingRequest{
		Model:   e.Model,
		Prompt:  text,
		Options: map[string]any{},
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	resp, err := e.Client.Embeddings(ctxWithTimeout, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("model %s returned an empty embedding", e.Model)
	}

	return resp.Embedding, nil
}

// EmbedHighlights fills in the embedding of every highlight in parallel.
// progressFunc, if not nil, is called after each highlight.
func (e *OllamaEmbedder) EmbedHighlights(ctx context.Context, highlights []models.IndexedHighlight,
	progressFunc func(processed, total int)) error {

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, max(e.MaxConcurrent, 1))

	var mu sync.Mutex
	processed := 0
	total := len(highlights)

	errChan := make(chan error, total)

	for i := range highlights {
		wg.Add(1)
		semaphore <- struct{}{} // Acquire semaphore

		go func(i int) {
			defer func() {
				wg.Done()
				<-semaphore
			}()

			embedding, err := e.EmbedText(ctx, highlights[i].Highlight.Text)
			if err != nil {
				errChan <- fmt.Errorf("failed to embed highlight %d of %s: %w",
					highlights[i].Position, highlights[i].Document, err)
				return
			}

			mu.Lock()
			highlights[i].Embedding = embedding
			processed++
			if progressFunc != nil {
				progressFunc(processed, total)
			}
			mu.Unlock()
		}(i)
	}

	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		return err
	}

	return nil
}
