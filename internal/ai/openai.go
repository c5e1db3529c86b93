package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	// the embeddings endpoint rejects larger input arrays
	openAIMaxEmbedBatch = 2048
)

type openAIConfig struct {
	APIKey       string `json:"api_key"`
	BaseURL      string `json:"base_url"`
	MaxBatchSize int    `json:"max_batch_size"`
}

type openAIProvider struct {
	apiKey    string
	baseURL   string
	batchSize int
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIChatMsg `json:"messages"`
	Temperature float64         `json:"temperature"`
	Stream      bool            `json:"stream"`
}

type openAIChatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type openAIEmbedRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (p *openAIProvider) Name() string {
	return "openai"
}

func (p *openAIProvider) MaxBatchSize() int {
	return p.batchSize
}

func (p *openAIProvider) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	var out openAIChatResponse
	err := p.post(ctx, "/chat/completions", openAIChatRequest{
		Model:       req.Model,
		Messages:    []openAIChatMsg{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
		Stream:      false,
	}, &out)
	if err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai response has no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func (p *openAIProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, error) {
	var out openAIEmbedResponse
	err := p.post(ctx, "/embeddings", openAIEmbedRequest{
		Model:      req.Model,
		Input:      req.Texts,
		Dimensions: req.Dimension,
	}, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("openai response has no embeddings")
	}
	sort.Slice(out.Data, func(i, j int) bool {
		return out.Data[i].Index < out.Data[j].Index
	})
	res := make([][]float32, 0, len(out.Data))
	for _, item := range out.Data {
		res = append(res, item.Embedding)
	}
	return res, nil
}

func (p *openAIProvider) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	if p.apiKey == "" {
		return ErrUnavailable
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + path
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("openai request failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func createOpenAIFactory(args interface{}) (IProvider, error) {
	cfg := &openAIConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	batchSize := cfg.MaxBatchSize
	if batchSize <= 0 || batchSize > openAIMaxEmbedBatch {
		batchSize = openAIMaxEmbedBatch
	}
	return &openAIProvider{
		apiKey:    strings.TrimSpace(cfg.APIKey),
		baseURL:   baseURL,
		batchSize: batchSize,
	}, nil
}

func init() {
	Register("openai", createOpenAIFactory)
}
