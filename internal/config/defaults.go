package config

// DefaultLLMPrompt asks the model for one precise sub-topic per line.
const DefaultLLMPrompt = "Produce sub-topics for the following user's topic of interest. " +
	"The sub-topics should be precise. Answer with one sub-topic per line and nothing else."

// DefaultSummaryPrompt asks the model for a concise summary of a video description.
const DefaultSummaryPrompt = "Provide a short summary of the following YouTube video description. " +
	"The summary should be concise."

// FanOutSubTopics is the largest decomposition the default backend rate limit admits in one
// burst. A run sends one decomposition request plus two searches per sub-topic, all from the
// controller's address.
const FanOutSubTopics = 50

// DefaultRateBurst lets a full fan-out of FanOutSubTopics through without waiting.
const DefaultRateBurst = 2*FanOutSubTopics + 1

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Backend.Host == "" {
		cfg.Backend.Host = "localhost"
	}
	if cfg.Backend.Port == 0 {
		cfg.Backend.Port = 5000
	}
	if cfg.Backend.RateLimit == 0 {
		cfg.Backend.RateLimit = 20
	}
	if cfg.Backend.RateBurst == 0 {
		cfg.Backend.RateBurst = DefaultRateBurst
	}
	if cfg.Backend.MaxUploadMB == 0 {
		cfg.Backend.MaxUploadMB = 32
	}
	if cfg.Services.DecomposeURL == "" {
		cfg.Services.DecomposeURL = "http://localhost:5000/generate-sub-topics"
	}
	if cfg.Services.ContentURL == "" {
		cfg.Services.ContentURL = "http://localhost:5000/query-subtopic"
	}
	if cfg.Services.VideoURL == "" {
		cfg.Services.VideoURL = "http://localhost:5000/search_youtube"
	}
	if cfg.Services.TimeoutSeconds == 0 {
		cfg.Services.TimeoutSeconds = 30
	}
	if cfg.Research.RenderMode == "" {
		cfg.Research.RenderMode = RenderIncremental
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/manabu/data/db/library.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/manabu/data/indices/bleve"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "/usr/local/var/manabu/data/indices/vectors.bin"
	}
	if cfg.YouTube.MaxResults == 0 {
		cfg.YouTube.MaxResults = 3
	}
	if cfg.YouTube.CacheTTLMinutes == 0 {
		cfg.YouTube.CacheTTLMinutes = 60
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.Prompt == "" {
		cfg.LLM.Prompt = DefaultLLMPrompt
	}
	if cfg.LLM.SummaryPrompt == "" {
		cfg.LLM.SummaryPrompt = DefaultSummaryPrompt
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = EmbeddingAuto
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 512
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1000
	}
	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = 3
	}
	if cfg.Search.TitleBoost == 0 {
		cfg.Search.TitleBoost = 2.0
	}
	if cfg.Search.KeywordWeight == 0 && cfg.Search.SemanticWeight == 0 {
		cfg.Search.KeywordWeight = 0.5
		cfg.Search.SemanticWeight = 0.5
	}
	if cfg.Search.MinSemanticScore == 0 {
		cfg.Search.MinSemanticScore = 0.2
	}
	if cfg.Search.FuzzyFallback == nil {
		fuzzy := true
		cfg.Search.FuzzyFallback = &fuzzy
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".html", ".txt"}
	}
}
