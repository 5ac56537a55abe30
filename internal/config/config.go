// Package config provides configuration loading for the RAG backend.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Service   ServiceConfig   `yaml:"service"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chat      ChatConfig      `yaml:"chat"`
	Storage   StorageConfig   `yaml:"storage"`
	Search    SearchConfig    `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// CorpusConfig holds corpus scanning settings.
type CorpusConfig struct {
	RootDir    string   `yaml:"root_dir"`
	Extensions []string `yaml:"extensions"`
}

// ServiceConfig holds model gateway settings.
type ServiceConfig struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`    // empty: derived from region
	APIKeyEnv string `yaml:"api_key_env"` // env var holding the bearer token; empty value disables auth
}

// EndpointOrDefault returns the configured endpoint, or the region-derived
// gateway URL when unset.
func (s *ServiceConfig) EndpointOrDefault() string {
	if s.Endpoint != "" {
		return s.Endpoint
	}
	return fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com", s.Region)
}

// EmbeddingConfig holds embedding model settings.
type EmbeddingConfig struct {
	ModelID    string `yaml:"model_id"`
	Dimensions int    `yaml:"dimensions"`
	CacheSize  int    `yaml:"cache_size"`
}

// ChatConfig holds chat completion settings.
type ChatConfig struct {
	ModelID   string `yaml:"model_id"`
	MaxTokens int    `yaml:"max_tokens"`
}

// StorageConfig holds paths for persisted artifacts.
type StorageConfig struct {
	IndexPath        string `yaml:"index_path"`
	MetaPath         string `yaml:"meta_path"`
	KeywordIndexPath string `yaml:"keyword_index_path"`
	HistoryDBPath    string `yaml:"history_db_path"`
}

// SearchConfig holds retrieval settings.
type SearchConfig struct {
	DefaultK       int     `yaml:"default_k"`
	MaxK           int     `yaml:"max_k"`
	KeywordEnabled bool    `yaml:"keyword_enabled"`
	SemanticWeight float64 `yaml:"semantic_weight"`
	KeywordWeight  float64 `yaml:"keyword_weight"`
}

// Load reads the config file at path, applies defaults, environment overrides,
// and path expansion. A missing file is not an error when path is empty: the
// system runs on defaults plus environment, matching the original deployment.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	cfg.Corpus.RootDir = expandPath(cfg.Corpus.RootDir)
	cfg.Storage.IndexPath = expandPath(cfg.Storage.IndexPath)
	cfg.Storage.MetaPath = expandPath(cfg.Storage.MetaPath)
	cfg.Storage.KeywordIndexPath = expandPath(cfg.Storage.KeywordIndexPath)
	cfg.Storage.HistoryDBPath = expandPath(cfg.Storage.HistoryDBPath)

	return &cfg, nil
}

// applyEnvOverrides overlays the environment-style configuration surface on
// top of whatever the YAML file provided. Each variable is a plain override of
// one field; values that fail to parse are ignored.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Corpus.RootDir = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Service.Region = v
	}
	if v := os.Getenv("LLM_ENDPOINT"); v != "" {
		cfg.Service.Endpoint = v
	}
	if v := os.Getenv("EMBED_MODEL_ID"); v != "" {
		cfg.Embedding.ModelID = v
	}
	if v := os.Getenv("EMBED_DIM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Embedding.Dimensions = n
		}
	}
	if v := os.Getenv("CHAT_MODEL_ID"); v != "" {
		cfg.Chat.ModelID = v
	}
	if v := os.Getenv("INDEX_PATH"); v != "" {
		cfg.Storage.IndexPath = v
	}
	if v := os.Getenv("META_PATH"); v != "" {
		cfg.Storage.MetaPath = v
	}
}

// expandPath converts a relative path to absolute against the working
// directory. Empty stays empty.
func expandPath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
