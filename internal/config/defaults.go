package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Corpus.RootDir == "" {
		cfg.Corpus.RootDir = "./data"
	}
	if cfg.Corpus.Extensions == nil {
		cfg.Corpus.Extensions = []string{".txt", ".md", ".rst", ".pdf", ".docx", ".xlsx"}
	}
	if cfg.Service.Region == "" {
		cfg.Service.Region = "us-east-1"
	}
	if cfg.Service.APIKeyEnv == "" {
		cfg.Service.APIKeyEnv = "LLM_API_KEY"
	}
	if cfg.Embedding.ModelID == "" {
		cfg.Embedding.ModelID = "amazon.titan-embed-text-v2:0"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Chat.ModelID == "" {
		cfg.Chat.ModelID = "anthropic.claude-3-haiku-20240307-v1:0"
	}
	if cfg.Chat.MaxTokens == 0 {
		cfg.Chat.MaxTokens = 512
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "./data/index/vectors.idx"
	}
	if cfg.Storage.MetaPath == "" {
		cfg.Storage.MetaPath = "./data/index/meta.json"
	}
	if cfg.Storage.KeywordIndexPath == "" {
		cfg.Storage.KeywordIndexPath = "./data/index/keyword"
	}
	if cfg.Storage.HistoryDBPath == "" {
		cfg.Storage.HistoryDBPath = "./data/db/history.db"
	}
	if cfg.Search.DefaultK == 0 {
		cfg.Search.DefaultK = 3
	}
	if cfg.Search.MaxK == 0 {
		cfg.Search.MaxK = 20
	}
	if cfg.Search.SemanticWeight == 0 && cfg.Search.KeywordWeight == 0 {
		cfg.Search.SemanticWeight = 0.7
		cfg.Search.KeywordWeight = 0.3
	}
}
