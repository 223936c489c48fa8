package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"highlight-extractor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sources = []models.IndexedHighlight{
	{Document: "/papers/brosch2013.pdf", Highlight: models.Highlight{Page: 3, Text: "appraisal drives emotion"}},
	{Document: "/papers/gross.pdf", Highlight: models.Highlight{Page: 12, Text: "reappraisal reduces negative affect"}},
}

func TestGeneratePrompt(t *testing.T) {
	o := &OllamaLLM{Model: "m"}
	prompt := o.GeneratePrompt("What drives emotion?", sources)

	assert.Contains(t, prompt, "Passage 1 [brosch2013.pdf, Page: 3]:\nappraisal drives emotion\n")
	assert.Contains(t, prompt, "Passage 2 [gross.pdf, Page: 12]:\nreappraisal reduces negative affect\n")
	assert.Contains(t, prompt, "Question: What drives emotion?\n\nAnswer: ")
	assert.NotContains(t, prompt, "/papers/")
}

// fakeGenerate streams the answer in two NDJSON chunks
func fakeGenerate(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req["model"])

		if status != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			w.Write([]byte(`{"error":"no such model"}`))
			return
		}

		w.Header().Set("Content-Type", "application/x-ndjson")
		enc := json.NewEncoder(w)
		enc.Encode(map[string]any{"model": "test-model", "response": " Appraisal", "done": false})
		enc.Encode(map[string]any{"model": "test-model", "response": " (brosch2013.pdf, p. 3).", "done": true})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnswer(t *testing.T) {
	o, err := NewOllamaLLM(fakeGenerate(t, http.StatusOK).URL, "test-model")
	require.NoError(t, err)

	answer, err := o.Answer(context.Background(), "What drives emotion?", sources)
	require.NoError(t, err)
	assert.Equal(t, "Appraisal (brosch2013.pdf, p. 3).", answer.Text)
	assert.Equal(t, sources, answer.Sources)
	assert.NotEmpty(t, answer.Timestamp)
}

func TestAnswer_Error(t *testing.T) {
	o, err := NewOllamaLLM(fakeGenerate(t, http.StatusNotFound).URL, "test-model")
	require.NoError(t, err)

	_, err = o.Answer(context.Background(), "q", sources)
	assert.Error(t, err)
}
