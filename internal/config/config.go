// Package config loads the settings recognized by the ingestion and query
// pipelines from a YAML file, filling unset options with defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ragcore/internal/logging"
	"ragcore/internal/telemetry"
)

// ChunkingConfig controls the chunking orchestrator (C4) and strategies (C3).
type ChunkingConfig struct {
	Strategy                  string `yaml:"strategy"` // "auto", "simple", "semantic", "hierarchical"
	ChunkSize                 int    `yaml:"chunk_size"`
	ChunkOverlap              int    `yaml:"chunk_overlap"`
	MinChunkSize              int    `yaml:"min_chunk_size"`
	MaxChunkSize              int    `yaml:"max_chunk_size"`
	ParentChunkMultiplier     int    `yaml:"parent_chunk_multiplier"`
	ParentSummaryMaxLength    int    `yaml:"parent_summary_max_length"`
	SemanticOverlapEnabled    bool   `yaml:"semantic_overlap_enabled"`
	SemanticOverlapTokens     int    `yaml:"semantic_overlap_tokens"`
	HierarchicalThresholdChar int    `yaml:"hierarchical_threshold_chars"`
	SemanticThresholdChar     int    `yaml:"semantic_threshold_chars"`
	MinHeadersForSemantic     int    `yaml:"min_headers_for_semantic"`
}

// SummarizerConfig controls the map-reduce summarizer (C8).
type SummarizerConfig struct {
	ShortDocThreshold     int `yaml:"short_doc_threshold"`
	MinSectionSize        int `yaml:"min_section_size"`
	MaxSectionSize        int `yaml:"max_section_size"`
	MaxConcurrentRequests int `yaml:"max_concurrent_requests"`
	SectionSummaryMaxTok  int `yaml:"section_summary_max_tokens"`
	FinalSummaryMaxTok    int `yaml:"final_summary_max_tokens"`
}

// QAConfig controls the Q&A generator (C9).
type QAConfig struct {
	SmallTargetCount  int `yaml:"small_target_count"`
	MediumTargetCount int `yaml:"medium_target_count"`
	LargeTargetCount  int `yaml:"large_target_count"`
	MinPerSection     int `yaml:"min_per_section"`
	// SmallMediumThresholdChars is the document-length boundary below which
	// the small (N=8) target count applies instead of medium (N=12).
	SmallMediumThresholdChars int `yaml:"small_medium_threshold_chars"`
	// LargeThresholdChars is the boundary above which generation switches
	// from one single call to per-section.
	LargeThresholdChars int `yaml:"large_threshold_chars"`
	// DuplicateLengthTolerance bounds the near-substring dedup rule.
	DuplicateLengthTolerance int `yaml:"duplicate_length_tolerance"`
}

// EmbeddingConfig describes the embedding provider (C10).
type EmbeddingConfig struct {
	Host          string `yaml:"host"`
	APIKey        string `yaml:"api_key"`
	Model         string `yaml:"model"`
	Dimensions    int    `yaml:"dimensions"`
	BatchSize     int    `yaml:"batch_size"`
	PerItemMaxLen int    `yaml:"per_item_max_tokens"`
	RequestTimeoutMS int `yaml:"request_timeout_ms"`
}

// RetrievalConfig controls hybrid retrieval (C13) and reranking (C14).
type RetrievalConfig struct {
	DefaultTopK      int     `yaml:"default_top_k"`
	DefaultRerankTop int     `yaml:"default_rerank_top"`
	RRFK             int     `yaml:"rrf_k"`
	EnableHybrid     bool    `yaml:"enable_hybrid_search"`
	EnableQAMatching bool    `yaml:"enable_qa_matching"`
	BM25K1           float64 `yaml:"bm25_k1"`
	BM25B            float64 `yaml:"bm25_b"`
	MaxCorpusSize    int     `yaml:"max_corpus_size"`
}

// AgentConfig controls the agentic evaluation loop (C15).
type AgentConfig struct {
	MaxIterations int `yaml:"max_agent_iterations"`
}

// VectorStoreConfig selects and configures the vector store adapter (C11).
type VectorStoreConfig struct {
	Backend       string `yaml:"backend"` // "qdrant" or "memory"
	DSN           string `yaml:"dsn"`
	Collection    string `yaml:"collection"`
	EmbeddingSize int    `yaml:"embedding_size"`
	Metric        string `yaml:"metric"`
}

// DatabaseConfig configures the relational store.
type DatabaseConfig struct {
	ConnectionString string `yaml:"connection_string"`
}

// S3SSEConfig configures server-side encryption for the S3 object store
// backend.
type S3SSEConfig struct {
	Mode     string `yaml:"mode"` // "", "sse-s3", or "sse-kms"
	KMSKeyID string `yaml:"kms_key_id,omitempty"`
}

// ObjectStoreConfig configures the object store (S3-compatible or in-memory).
type ObjectStoreConfig struct {
	Backend               string      `yaml:"backend"` // "s3" or "memory"
	Bucket                string      `yaml:"bucket"`
	Region                string      `yaml:"region"`
	AccessKey             string      `yaml:"access_key,omitempty"`
	SecretKey             string      `yaml:"secret_key,omitempty"`
	Endpoint              string      `yaml:"endpoint,omitempty"`
	Prefix                string      `yaml:"prefix,omitempty"`
	UsePathStyle          bool        `yaml:"use_path_style"`
	TLSInsecureSkipVerify bool        `yaml:"tls_insecure_skip_verify"`
	SSE                   S3SSEConfig `yaml:"sse"`
}

// S3Config is an alias kept for the S3 backend constructor, which predates
// the merge into ObjectStoreConfig.
type S3Config = ObjectStoreConfig

// QueueConfig configures the Kafka-backed message channels (§6).
type QueueConfig struct {
	Brokers         []string `yaml:"brokers"`
	IngestionTopic  string   `yaml:"ingestion_topic"`
	QueryTopic      string   `yaml:"query_topic"`
	ConsumerGroup   string   `yaml:"consumer_group"`
}

// LLMConfig configures the LLM provider used by the summarizer, Q&A
// generator, reranker, agent evaluator, and answer generator.
type LLMConfig struct {
	Host        string  `yaml:"host"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	TimeoutMS   int     `yaml:"timeout_ms"`
}

// Config is the top-level configuration for the ingestion and query workers.
type Config struct {
	Chunking    ChunkingConfig    `yaml:"chunking"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
	QA          QAConfig          `yaml:"qa"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Agent       AgentConfig       `yaml:"agent"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Database    DatabaseConfig    `yaml:"database"`
	ObjectStore ObjectStoreConfig `yaml:"object_store"`
	Queue       QueueConfig       `yaml:"queue"`
	LLM         LLMConfig         `yaml:"llm"`
	OTel        telemetry.Config  `yaml:"otel"`

	// Provider timeouts (§5: distinct values for document-analysis, LLM, embedding).
	DocumentAnalysisTimeoutMS int `yaml:"document_analysis_timeout_ms"`
	ConversionTimeoutMS       int `yaml:"conversion_timeout_ms"`
	MaxConcurrentImageProc    int `yaml:"max_concurrent_image_processing"`
}

// Load reads the configuration from a YAML file and applies documented
// defaults for any option left unset.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		logging.Log.WithError(err).WithField("path", filename).Error("failed to read config file")
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logging.Log.WithError(err).Error("failed to unmarshal config")
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	logging.Log.WithField("path", filename).Info("configuration loaded")
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Chunking.Strategy == "" {
		cfg.Chunking.Strategy = "auto"
	}
	if cfg.Chunking.ChunkSize <= 0 {
		cfg.Chunking.ChunkSize = 512
	}
	if cfg.Chunking.ChunkOverlap <= 0 {
		cfg.Chunking.ChunkOverlap = 50
	}
	if cfg.Chunking.MinChunkSize <= 0 {
		cfg.Chunking.MinChunkSize = 100
	}
	if cfg.Chunking.MaxChunkSize <= 0 {
		cfg.Chunking.MaxChunkSize = cfg.Chunking.ChunkSize * 2
	}
	if cfg.Chunking.ParentChunkMultiplier <= 0 {
		cfg.Chunking.ParentChunkMultiplier = 3
	}
	if cfg.Chunking.ParentSummaryMaxLength <= 0 {
		cfg.Chunking.ParentSummaryMaxLength = 500
	}
	if cfg.Chunking.SemanticOverlapTokens <= 0 {
		cfg.Chunking.SemanticOverlapTokens = 30
	}
	if cfg.Chunking.HierarchicalThresholdChar <= 0 {
		cfg.Chunking.HierarchicalThresholdChar = 10000
	}
	if cfg.Chunking.SemanticThresholdChar <= 0 {
		cfg.Chunking.SemanticThresholdChar = 3000
	}
	if cfg.Chunking.MinHeadersForSemantic <= 0 {
		cfg.Chunking.MinHeadersForSemantic = 2
	}

	if cfg.Summarizer.ShortDocThreshold <= 0 {
		cfg.Summarizer.ShortDocThreshold = 6000
	}
	if cfg.Summarizer.MinSectionSize <= 0 {
		cfg.Summarizer.MinSectionSize = 200
	}
	if cfg.Summarizer.MaxSectionSize <= 0 {
		cfg.Summarizer.MaxSectionSize = 4000
	}
	if cfg.Summarizer.MaxConcurrentRequests <= 0 {
		cfg.Summarizer.MaxConcurrentRequests = 4
		logging.Log.Info("no summarizer.max_concurrent_requests specified, using default (4)")
	}
	if cfg.Summarizer.SectionSummaryMaxTok <= 0 {
		cfg.Summarizer.SectionSummaryMaxTok = 200
	}
	if cfg.Summarizer.FinalSummaryMaxTok <= 0 {
		cfg.Summarizer.FinalSummaryMaxTok = 600
	}

	if cfg.QA.SmallTargetCount <= 0 {
		cfg.QA.SmallTargetCount = 8
	}
	if cfg.QA.MediumTargetCount <= 0 {
		cfg.QA.MediumTargetCount = 12
	}
	if cfg.QA.LargeTargetCount <= 0 {
		cfg.QA.LargeTargetCount = 15
	}
	if cfg.QA.MinPerSection <= 0 {
		cfg.QA.MinPerSection = 2
	}
	if cfg.QA.SmallMediumThresholdChars <= 0 {
		cfg.QA.SmallMediumThresholdChars = 3000
	}
	if cfg.QA.LargeThresholdChars <= 0 {
		cfg.QA.LargeThresholdChars = 20000
	}
	if cfg.QA.DuplicateLengthTolerance <= 0 {
		cfg.QA.DuplicateLengthTolerance = 10
	}

	if cfg.Embedding.Dimensions <= 0 {
		cfg.Embedding.Dimensions = 3072
	}
	if cfg.Embedding.BatchSize <= 0 {
		cfg.Embedding.BatchSize = 32
	}
	if cfg.Embedding.RequestTimeoutMS <= 0 {
		cfg.Embedding.RequestTimeoutMS = 30000
	}

	if cfg.Retrieval.DefaultTopK <= 0 {
		cfg.Retrieval.DefaultTopK = 10
	}
	if cfg.Retrieval.DefaultRerankTop <= 0 {
		cfg.Retrieval.DefaultRerankTop = 5
	}
	if cfg.Retrieval.RRFK <= 0 {
		cfg.Retrieval.RRFK = 60
	}
	if cfg.Retrieval.BM25K1 <= 0 {
		cfg.Retrieval.BM25K1 = 1.2
	}
	if cfg.Retrieval.BM25B <= 0 {
		cfg.Retrieval.BM25B = 0.75
	}
	if cfg.Retrieval.MaxCorpusSize <= 0 {
		cfg.Retrieval.MaxCorpusSize = 200000
	}

	if cfg.Agent.MaxIterations <= 0 {
		cfg.Agent.MaxIterations = 3
		logging.Log.Info("no agent.max_agent_iterations specified, using default (3)")
	}

	if cfg.VectorStore.Backend == "" {
		cfg.VectorStore.Backend = "qdrant"
	}
	if cfg.VectorStore.Metric == "" {
		cfg.VectorStore.Metric = "cosine"
	}
	if cfg.VectorStore.EmbeddingSize <= 0 {
		cfg.VectorStore.EmbeddingSize = cfg.Embedding.Dimensions
	}

	if cfg.ObjectStore.Backend == "" {
		cfg.ObjectStore.Backend = "s3"
	}

	if cfg.Queue.IngestionTopic == "" {
		cfg.Queue.IngestionTopic = "ingestion_queue"
	}
	if cfg.Queue.QueryTopic == "" {
		cfg.Queue.QueryTopic = "query_queue"
	}
	if cfg.Queue.ConsumerGroup == "" {
		cfg.Queue.ConsumerGroup = "rag-core"
	}

	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.2
	}
	if cfg.LLM.TimeoutMS <= 0 {
		cfg.LLM.TimeoutMS = 60000
	}

	if cfg.OTel.ServiceName == "" {
		cfg.OTel.ServiceName = "rag-core"
	}

	if cfg.DocumentAnalysisTimeoutMS <= 0 {
		cfg.DocumentAnalysisTimeoutMS = 120000
	}
	if cfg.ConversionTimeoutMS <= 0 {
		cfg.ConversionTimeoutMS = 300000
	}
	if cfg.MaxConcurrentImageProc <= 0 {
		cfg.MaxConcurrentImageProc = 3
	}
}
