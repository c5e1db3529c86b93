package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xxxsen/common/logger"
)

// SchemaEmbeddingDimension is the width of the vector column created by the migrations.
const SchemaEmbeddingDimension = 1536

type Config struct {
	DSN            string           `json:"dsn"`
	Port           int              `json:"port"`
	DefaultUserID  string           `json:"default_user_id"`
	TempDir        string           `json:"temp_dir"`
	MaxUploadSize  int64            `json:"max_upload_size"`
	// UploadInterval is the minimum gap between uploads from one client, in seconds. Zero disables it.
	UploadInterval int              `json:"upload_interval"`
	LogConfig      logger.LogConfig `json:"log_config"`
	Session        SessionConfig    `json:"session"`
	AI             AIConfig         `json:"ai"`
	Splitter       SplitterConfig   `json:"splitter"`
	Retrieval      RetrievalConfig  `json:"retrieval"`
	EmbedCache     EmbedCacheConfig `json:"embed_cache"`
	Archive        FileStoreConfig  `json:"archive"`
	Retention      RetentionConfig  `json:"retention"`
}

type SessionConfig struct {
	Secret     string `json:"secret"`
	CookieName string `json:"cookie_name"`
	TTLHours   int    `json:"ttl_hours"`
	Secure     bool   `json:"secure"`
}

type AIConfig struct {
	Provider           string      `json:"provider"`
	Model              string      `json:"model"`
	EmbedModel         string      `json:"embed_model"`
	EmbeddingDimension int         `json:"embedding_dimension"`
	Temperature        *float64    `json:"temperature"`
	Timeout            int         `json:"timeout"`
	Data               interface{} `json:"data"`
}

type SplitterConfig struct {
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap *int   `json:"chunk_overlap"`
	LengthUnit   string `json:"length_unit"`
}

type RetrievalConfig struct {
	SummaryTopK int `json:"summary_top_k"`
	QueryTopK   int `json:"query_top_k"`
}

type EmbedCacheConfig struct {
	Size       int `json:"size"`
	TTLMinutes int `json:"ttl_minutes"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type RetentionConfig struct {
	MaxAgeDays int    `json:"max_age_days"`
	Spec       string `json:"spec"`
	BatchSize  int    `json:"batch_size"`
}

// Load reads the optional JSON file at path, applies environment overrides
// and defaults, then validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()
		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}
	applyEnv(cfg)
	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("POSTGRES_CONNECTION")); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("SESSION_SECRET")); v != "" {
		cfg.Session.Secret = v
	}
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Port = port
		}
	}
	keyEnv := "OPENAI_API_KEY"
	if strings.EqualFold(strings.TrimSpace(cfg.AI.Provider), "gemini") {
		keyEnv = "GEMINI_API_KEY"
	}
	if v := strings.TrimSpace(os.Getenv(keyEnv)); v != "" {
		data, _ := cfg.AI.Data.(map[string]interface{})
		if data == nil {
			data = map[string]interface{}{}
		}
		data["api_key"] = v
		cfg.AI.Data = data
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.DefaultUserID == "" {
		cfg.DefaultUserID = "demo_user"
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 20 * 1024 * 1024
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "legalqa_session"
	}
	if cfg.Session.TTLHours == 0 {
		cfg.Session.TTLHours = 14 * 24
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "openai"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gpt-4.1-nano"
	}
	if cfg.AI.EmbedModel == "" {
		cfg.AI.EmbedModel = "text-embedding-3-small"
	}
	if cfg.AI.EmbeddingDimension == 0 {
		cfg.AI.EmbeddingDimension = SchemaEmbeddingDimension
	}
	if cfg.AI.Temperature == nil {
		temperature := 0.2
		cfg.AI.Temperature = &temperature
	}
	if cfg.Splitter.ChunkSize == 0 {
		cfg.Splitter.ChunkSize = 150
	}
	if cfg.Splitter.ChunkOverlap == nil {
		overlap := 30
		cfg.Splitter.ChunkOverlap = &overlap
	}
	if cfg.Splitter.LengthUnit == "" {
		cfg.Splitter.LengthUnit = "char"
	}
	if cfg.Retrieval.SummaryTopK == 0 {
		cfg.Retrieval.SummaryTopK = 50
	}
	if cfg.Retrieval.QueryTopK == 0 {
		cfg.Retrieval.QueryTopK = 20
	}
	if cfg.EmbedCache.Size == 0 {
		cfg.EmbedCache.Size = 4096
	}
	if cfg.EmbedCache.TTLMinutes == 0 {
		cfg.EmbedCache.TTLMinutes = 120
	}
	if cfg.Retention.Spec == "" {
		cfg.Retention.Spec = "0 3 * * *"
	}
	if cfg.Retention.BatchSize == 0 {
		cfg.Retention.BatchSize = 100
	}
}

func validate(cfg *Config) error {
	if cfg.DSN == "" {
		return fmt.Errorf("POSTGRES_CONNECTION environment variable is not set")
	}
	if cfg.AI.EmbeddingDimension != SchemaEmbeddingDimension {
		return fmt.Errorf("ai.embedding_dimension must be %d to match the legal_chunks.embedding column", SchemaEmbeddingDimension)
	}
	if *cfg.AI.Temperature < 0 {
		return fmt.Errorf("ai.temperature must not be negative")
	}
	if overlap := *cfg.Splitter.ChunkOverlap; overlap < 0 || overlap >= cfg.Splitter.ChunkSize {
		return fmt.Errorf("splitter.chunk_overlap must be in [0, splitter.chunk_size)")
	}
	switch cfg.Splitter.LengthUnit {
	case "char", "token":
	default:
		return fmt.Errorf("splitter.length_unit must be char or token")
	}
	return nil
}

// ValidateServe checks the settings needed only by the HTTP server, so the
// schema initializer can run with a bare connection string.
func (c *Config) ValidateServe() error {
	data, _ := c.AI.Data.(map[string]interface{})
	key, _ := data["api_key"].(string)
	if strings.TrimSpace(key) == "" {
		if strings.EqualFold(c.AI.Provider, "gemini") {
			return fmt.Errorf("GEMINI_API_KEY environment variable is not set")
		}
		return fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}
	return nil
}
