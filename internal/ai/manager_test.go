package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	out     string
	prompts []string
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.out, nil
}

func TestManagerAnswerBuildsPrompt(t *testing.T) {
	gen := &stubGenerator{out: "The term is two years."}
	m := NewManager(gen, nil, ManagerConfig{})
	out, err := m.Answer(context.Background(), "The agreement lasts two years.", "How long is the term?")
	require.NoError(t, err)
	require.Equal(t, "The term is two years.", out)
	require.Len(t, gen.prompts, 1)
	require.Contains(t, gen.prompts[0], "Context:\nThe agreement lasts two years.")
	require.Contains(t, gen.prompts[0], "Question:\nHow long is the term?")
	require.Contains(t, gen.prompts[0], `say: "I don't know."`)
}

func TestManagerSummarizeEmptyResponse(t *testing.T) {
	m := NewManager(&stubGenerator{out: "  \n"}, nil, ManagerConfig{Timeout: 5})
	_, err := m.Summarize(context.Background(), "ctx")
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestManagerWithoutEmbedder(t *testing.T) {
	m := NewManager(nil, nil, ManagerConfig{})
	_, err := m.Embed(context.Background(), "x", TaskRetrievalQuery)
	require.Error(t, err)
	_, err = m.Summarize(context.Background(), "x")
	require.Error(t, err)
	require.Equal(t, "", m.EmbeddingModelName())
}
