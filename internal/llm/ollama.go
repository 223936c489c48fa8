package llm

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"highlight-extractor/internal/embedding"
	"highlight-extractor/internal/models"

	"github.com/ollama/ollama/api"
)

// OllamaLLM handles interactions with the Ollama LLM API
type OllamaLLM struct {
	Client *api.Client
	Model  string
}

// NewOllamaLLM creates a new Ollama LLM client. An empty host falls back to
// OLLAMA_HOST.
func NewOllamaLLM(host string, model string) (*OllamaLLM, error) {
	client, err := embedding.NewClient(host)
	if err != nil {
		return nil, err
	}

	return &OllamaLLM{
		Client: client,
		Model:  model,
	}, nil
}

// GeneratePrompt creates a prompt that restricts the answer to the given
// highlights
func (o *OllamaLLM) GeneratePrompt(query string, highlights []models.IndexedHighlight) string {
	var promptBuilder strings.Builder

	promptBuilder.WriteString("You answer questions using only passages a reader highlighted in their documents. ")
	promptBuilder.WriteString("Cite the document and page of every passage you rely on. ")
	promptBuilder.WriteString("If the passages do not contain the answer, say 'The highlighted passages do not answer that question.'\n\n")

	promptBuilder.WriteString("Highlighted passages:\n")
	for i, h := range highlights {
		fmt.Fprintf(&promptBuilder, "Passage %d [%s, Page: %d]:\n", i+1, filepath.Base(h.Document), h.Highlight.Page)
		promptBuilder.WriteString(h.Highlight.Text)
		promptBuilder.WriteString("\n\n")
	}

	promptBuilder.WriteString("Question: " + query + "\n\n")
	promptBuilder.WriteString("Answer: ")

	return promptBuilder.String()
}

// GenerateResponse generates a response from the LLM
func (o *OllamaLLM) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	req := api.GenerateRequest{
		Model:  o.Model,
		Prompt: prompt,
		Options: map[string]interface{}{
			"temperature": 0.1,
			"num_predict": 1024,
		},
	}

	var responseBuilder strings.Builder

	err := o.Client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		_, err := responseBuilder.WriteString(resp.Response)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	return responseBuilder.String(), nil
}

// Answer answers a query from the given highlights
func (o *OllamaLLM) Answer(ctx context.Context, query string, highlights []models.IndexedHighlight) (*models.Answer, error) {
	prompt := o.GeneratePrompt(query, highlights)

	answer, err := o.GenerateResponse(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &models.Answer{
		Text:      strings.TrimSpace(answer),
		Sources:   highlights,
		Timestamp: time.Now().Format(time.RFC3339),
	}, nil
}
