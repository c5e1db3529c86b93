package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"POSTGRES_CONNECTION", "OPENAI_API_KEY", "GEMINI_API_KEY", "SESSION_SECRET", "PORT"} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnvWithDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_CONNECTION", "postgres://u:p@localhost/db")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "postgres://u:p@localhost/db", cfg.DSN)
	require.Equal(t, 8000, cfg.Port)
	require.Equal(t, "demo_user", cfg.DefaultUserID)
	require.Equal(t, "gpt-4.1-nano", cfg.AI.Model)
	require.Equal(t, 0.2, *cfg.AI.Temperature)
	require.Equal(t, "text-embedding-3-small", cfg.AI.EmbedModel)
	require.Equal(t, 1536, cfg.AI.EmbeddingDimension)
	require.Equal(t, 150, cfg.Splitter.ChunkSize)
	require.Equal(t, 30, *cfg.Splitter.ChunkOverlap)
	require.Equal(t, 50, cfg.Retrieval.SummaryTopK)
	require.Equal(t, 20, cfg.Retrieval.QueryTopK)
	require.Equal(t, "legalqa_session", cfg.Session.CookieName)
	require.Equal(t, 0, cfg.Retention.MaxAgeDays)
	require.NoError(t, cfg.ValidateServe())
}

func TestLoadRequiresDSN(t *testing.T) {
	clearEnv(t)
	_, err := Load("")
	require.Error(t, err)
}

func TestValidateServeRequiresKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_CONNECTION", "postgres://localhost/db")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Error(t, cfg.ValidateServe())
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	raw := `{
		"dsn": "postgres://file/db",
		"port": 9000,
		"ai": {"provider": "gemini", "model": "gemini-2.0-flash", "data": {"api_key": "from-file"}},
		"splitter": {"length_unit": "token"},
		"retention": {"max_age_days": 30}
	}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	t.Setenv("PORT", "8100")
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "postgres://file/db", cfg.DSN)
	require.Equal(t, 8100, cfg.Port)
	require.Equal(t, "gemini-2.0-flash", cfg.AI.Model)
	require.Equal(t, "token", cfg.Splitter.LengthUnit)
	require.Equal(t, 30, cfg.Retention.MaxAgeDays)
	data := cfg.AI.Data.(map[string]interface{})
	require.Equal(t, "from-env", data["api_key"])
	require.NoError(t, cfg.ValidateServe())
}

func TestLoadRejectsBadSplitter(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_CONNECTION", "postgres://localhost/db")
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"splitter": {"chunk_size": 20, "chunk_overlap": 40}}`), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadKeepsExplicitZeros(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_CONNECTION", "postgres://localhost/db")
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ai": {"temperature": 0}, "splitter": {"chunk_overlap": 0}}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 0.0, *cfg.AI.Temperature)
	require.Equal(t, 0, *cfg.Splitter.ChunkOverlap)
}

func TestLoadRejectsSchemaMismatchedDimension(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_CONNECTION", "postgres://localhost/db")
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ai": {"embedding_dimension": 768}}`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "embedding_dimension")
}
