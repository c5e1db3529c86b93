package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrEmptyResponse = errors.New("empty ai response")

const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

type ManagerConfig struct {
	Timeout int
}

type Manager struct {
	generator IGenerator
	embedder  IEmbedder
	cfg       ManagerConfig
}

func NewManager(generator IGenerator, embedder IEmbedder, cfg ManagerConfig) *Manager {
	return &Manager{
		generator: generator,
		embedder:  embedder,
		cfg:       cfg,
	}
}

func (m *Manager) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	return m.embedder.Embed(ctx, text, taskType)
}

func (m *Manager) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	return m.embedder.EmbedBatch(ctx, texts, taskType)
}

func (m *Manager) Summarize(ctx context.Context, contextText string) (string, error) {
	return m.generateText(ctx, BuildSummaryPrompt(contextText))
}

func (m *Manager) Answer(ctx context.Context, contextText string, question string) (string, error) {
	return m.generateText(ctx, BuildAnswerPrompt(contextText, question))
}

func BuildSummaryPrompt(contextText string) string {
	return fmt.Sprintf(`You are a helpful legal expert.
Summarize the following legal document in a detailed overview.
Your summary should be comprehensive and cover all key aspects.
Do not include any personal opinions or interpretations.
Use ONLY the following context. If you don't find enough info, say: "I don't know."

Context:
%s`, contextText)
}

func BuildAnswerPrompt(contextText string, question string) string {
	return fmt.Sprintf(`You are a helpful legal expert.
Answer the following question based on the provided context.
Use ONLY the context provided. If you don't find enough info, say: "I don't know."

Context:
%s

Question:
%s`, contextText, question)
}

func (m *Manager) generateText(ctx context.Context, prompt string) (string, error) {
	if m.generator == nil {
		return "", fmt.Errorf("generator not configured")
	}
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
		defer cancel()
	}
	resp, err := m.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (m *Manager) EmbeddingModelName() string {
	if m.embedder == nil {
		return ""
	}
	return m.embedder.ModelName()
}
