package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrUnavailable = errors.New("ai provider unavailable")

type GenerateRequest struct {
	Model       string
	Prompt      string
	Temperature float64
}

type EmbedRequest struct {
	Model     string
	Texts     []string
	TaskType  string
	Dimension int
}

type IProvider interface {
	Name() string
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	Embed(ctx context.Context, req EmbedRequest) ([][]float32, error)
	// MaxBatchSize is the most inputs one Embed request may carry.
	MaxBatchSize() int
}

type IGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error)
	ModelName() string
}

type generator struct {
	provider    IProvider
	model       string
	temperature float64
}

func NewGenerator(p IProvider, model string, temperature float64) IGenerator {
	return &generator{provider: p, model: model, temperature: temperature}
}

func (g *generator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.provider.Generate(ctx, GenerateRequest{
		Model:       g.model,
		Prompt:      prompt,
		Temperature: g.temperature,
	})
}

type embedder struct {
	provider  IProvider
	model     string
	dimension int
}

func NewEmbedder(p IProvider, model string, dimension int) IEmbedder {
	return &embedder{provider: p, model: model, dimension: dimension}
}

func (e *embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	res, err := e.EmbedBatch(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

// EmbedBatch splits texts into provider-sized requests and returns the
// vectors in input order.
func (e *embedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	size := e.provider.MaxBatchSize()
	if size <= 0 {
		size = len(texts)
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := start + size
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]
		res, err := e.provider.Embed(ctx, EmbedRequest{
			Model:     e.model,
			Texts:     batch,
			TaskType:  taskType,
			Dimension: e.dimension,
		})
		if err != nil {
			return nil, fmt.Errorf("embed inputs %d-%d: %w", start, end-1, err)
		}
		if len(res) != len(batch) {
			return nil, fmt.Errorf("%s returned %d embeddings for %d inputs", e.provider.Name(), len(res), len(batch))
		}
		out = append(out, res...)
	}
	return out, nil
}

func (e *embedder) ModelName() string {
	return e.model
}

type ProviderFactory func(args interface{}) (IProvider, error)

var registry = map[string]ProviderFactory{}

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}
