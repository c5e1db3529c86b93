package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) IProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p, err := NewProvider("openai", map[string]interface{}{
		"api_key":  "sk-test",
		"base_url": srv.URL,
	})
	require.NoError(t, err)
	return p
}

func TestOpenAIGenerate(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var req openAIChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "gpt-4.1-nano", req.Model)
		require.InDelta(t, 0.2, req.Temperature, 1e-9)
		require.Len(t, req.Messages, 1)
		require.Equal(t, "hello", req.Messages[0].Content)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  hi there \n"}}]}`))
	})
	out, err := p.Generate(context.Background(), GenerateRequest{Model: "gpt-4.1-nano", Prompt: "hello", Temperature: 0.2})
	require.NoError(t, err)
	require.Equal(t, "hi there", out)
}

func TestOpenAIEmbedKeepsInputOrder(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		var req openAIEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, []string{"a", "b"}, req.Input)
		require.Equal(t, 3, req.Dimensions)
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1,0]},{"index":0,"embedding":[1,0,0]}]}`))
	})
	e := NewEmbedder(p, "text-embedding-3-small", 3)
	out, err := e.EmbedBatch(context.Background(), []string{"a", "b"}, TaskRetrievalDocument)
	require.NoError(t, err)
	require.Equal(t, [][]float32{{1, 0, 0}, {0, 1, 0}}, out)
}

func TestOpenAIEmbedBatchSplitsLargeInput(t *testing.T) {
	var mu sync.Mutex
	var sizes []int
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		var req openAIEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		sizes = append(sizes, len(req.Input))
		mu.Unlock()
		if len(req.Input) > 2048 {
			http.Error(w, "array must be 2048 items or fewer", http.StatusBadRequest)
			return
		}
		resp := openAIEmbedResponse{}
		for i, text := range req.Input {
			n, err := strconv.Atoi(text)
			require.NoError(t, err)
			resp.Data = append(resp.Data, struct {
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			}{Index: i, Embedding: []float32{float32(n)}})
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})
	require.Equal(t, 2048, p.MaxBatchSize())

	texts := make([]string, 3000)
	for i := range texts {
		texts[i] = strconv.Itoa(i)
	}
	out, err := NewEmbedder(p, "text-embedding-3-small", 1).EmbedBatch(context.Background(), texts, TaskRetrievalDocument)
	require.NoError(t, err)
	require.Equal(t, []int{2048, 952}, sizes)
	require.Len(t, out, 3000)
	for i, vec := range out {
		require.Equal(t, []float32{float32(i)}, vec)
	}
}

func TestOpenAIMaxBatchSizeFromConfig(t *testing.T) {
	p, err := NewProvider("openai", map[string]interface{}{"max_batch_size": 500})
	require.NoError(t, err)
	require.Equal(t, 500, p.MaxBatchSize())

	p, err = NewProvider("openai", map[string]interface{}{"max_batch_size": 5000})
	require.NoError(t, err)
	require.Equal(t, 2048, p.MaxBatchSize())

	p, err = NewProvider("gemini", map[string]interface{}{"api_key": "k"})
	require.NoError(t, err)
	require.Equal(t, 100, p.MaxBatchSize())
}

func TestOpenAIErrorStatus(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})
	_, err := p.Generate(context.Background(), GenerateRequest{Model: "m", Prompt: "p"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "quota exceeded")
}

func TestOpenAIWithoutKey(t *testing.T) {
	p, err := NewProvider("openai", map[string]interface{}{})
	require.NoError(t, err)
	_, err = p.Generate(context.Background(), GenerateRequest{Model: "m", Prompt: "p"})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider("nope", map[string]interface{}{})
	require.Error(t, err)
	_, err = NewProvider("", nil)
	require.Error(t, err)
}
