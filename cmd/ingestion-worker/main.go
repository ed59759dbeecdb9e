// Command ingestion-worker runs the C17 pipeline: it consumes ingestion
// queue messages and turns each into persisted chunks, vectors, summaries,
// and Q&A pairs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"ragcore/internal/chunking"
	"ragcore/internal/config"
	"ragcore/internal/convert"
	"ragcore/internal/embedding"
	"ragcore/internal/ingestworker"
	"ragcore/internal/llmprovider"
	"ragcore/internal/logging"
	"ragcore/internal/objectstore"
	"ragcore/internal/qagen"
	"ragcore/internal/queue"
	"ragcore/internal/store"
	"ragcore/internal/summarize"
	"ragcore/internal/telemetry"
	"ragcore/internal/tokenizer"
	"ragcore/internal/vectorstore"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Log.WithError(err).Fatal("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, cfg.OTel)
	if err != nil {
		logging.Log.WithError(err).Fatal("failed to set up telemetry")
	}
	defer func() { _ = shutdown(context.Background()) }()

	pool, err := store.NewPool(ctx, cfg.Database.ConnectionString)
	if err != nil {
		logging.Log.WithError(err).Fatal("failed to connect to database")
	}
	defer pool.Close()

	st := store.NewStore(pool)
	if err := st.Init(ctx); err != nil {
		logging.Log.WithError(err).Fatal("failed to initialize schema")
	}

	objects, err := buildObjectStore(ctx, cfg.ObjectStore)
	if err != nil {
		logging.Log.WithError(err).Fatal("failed to initialize object store")
	}

	vectors, err := buildVectorStore(cfg.VectorStore)
	if err != nil {
		logging.Log.WithError(err).Fatal("failed to initialize vector store")
	}

	tok, err := tokenizer.New("cl100k_base")
	if err != nil {
		logging.Log.WithError(err).Fatal("failed to initialize tokenizer")
	}

	provider := llmprovider.NewOpenAI(cfg.LLM.APIKey, cfg.LLM.Host, cfg.LLM.Model)
	embedBackend := embedding.NewOpenAIBackend(cfg.Embedding.APIKey, cfg.Embedding.Host)
	embedder := embedding.NewClient(embedBackend, cfg.Embedding.Model, cfg.Embedding.Dimensions,
		cfg.Embedding.BatchSize, cfg.Embedding.PerItemMaxLen, tok)

	worker := &ingestworker.Worker{
		Objects:       objects,
		Store:         st,
		Vectors:       vectors,
		Converter:     &convert.Converter{},
		ChunkOrch:     chunking.Orchestrator{Tok: tok},
		Embedder:      embedder,
		Provider:      provider,
		Model:         cfg.LLM.Model,
		ChunkStrategy: cfg.Chunking.Strategy,
		ChunkCfg:      toChunkingConfig(cfg.Chunking),
		SummaryCfg: summarize.Config{
			ShortDocThreshold:       cfg.Summarizer.ShortDocThreshold,
			MinSectionSize:          cfg.Summarizer.MinSectionSize,
			MaxSectionSize:          cfg.Summarizer.MaxSectionSize,
			MaxConcurrentRequests:   cfg.Summarizer.MaxConcurrentRequests,
			SectionSummaryMaxTokens: cfg.Summarizer.SectionSummaryMaxTok,
			FinalSummaryMaxTokens:   cfg.Summarizer.FinalSummaryMaxTok,
		},
		QACfg: qagen.Config{
			SmallMediumThreshold:     cfg.QA.SmallMediumThresholdChars,
			LargeThreshold:           cfg.QA.LargeThresholdChars,
			LargeTargetCount:         cfg.QA.LargeTargetCount,
			MaxConcurrentRequests:    cfg.Summarizer.MaxConcurrentRequests,
			DuplicateLengthTolerance: cfg.QA.DuplicateLengthTolerance,
		},
		Collections: ingestworker.Collections{
			Chunks:    cfg.VectorStore.Collection + "_chunks",
			Summaries: cfg.VectorStore.Collection + "_summaries",
			QA:        cfg.VectorStore.Collection + "_qa",
		},
	}

	consumer := queue.NewConsumer(cfg.Queue.Brokers, cfg.Queue.ConsumerGroup, cfg.Queue.IngestionTopic)
	defer consumer.Close()

	logging.Log.Info("ingestion worker started")
	err = consumer.Run(ctx, func(ctx context.Context, raw []byte) error {
		var msg queue.IngestionMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			logging.Log.WithError(err).Error("failed to decode ingestion message")
			return nil // malformed message, drop without retry
		}
		return worker.ProcessDocument(ctx, msg.DocumentID, msg.FilePath, msg.OriginalFilename, msg.MimeType)
	})
	if err != nil && ctx.Err() == nil {
		logging.Log.WithError(err).Fatal("ingestion worker stopped unexpectedly")
	}
	logging.Log.Info("ingestion worker shut down")
}

func buildObjectStore(ctx context.Context, cfg config.ObjectStoreConfig) (objectstore.ObjectStore, error) {
	if cfg.Backend == "memory" {
		return objectstore.NewMemoryStore(), nil
	}
	return objectstore.NewS3Store(ctx, cfg)
}

func buildVectorStore(cfg config.VectorStoreConfig) (vectorstore.Store, error) {
	if cfg.Backend == "memory" {
		return vectorstore.NewMemory(), nil
	}
	return vectorstore.NewQdrant(cfg.DSN)
}

func toChunkingConfig(cfg config.ChunkingConfig) chunking.Config {
	return chunking.Config{
		ChunkSize:                 cfg.ChunkSize,
		ChunkOverlap:              cfg.ChunkOverlap,
		MinChunkSize:              cfg.MinChunkSize,
		MaxChunkSize:              cfg.MaxChunkSize,
		ParentChunkMultiplier:     cfg.ParentChunkMultiplier,
		ParentSummaryMaxLength:    cfg.ParentSummaryMaxLength,
		SemanticOverlapEnabled:    cfg.SemanticOverlapEnabled,
		SemanticOverlapTokens:     cfg.SemanticOverlapTokens,
		HierarchicalThresholdChar: cfg.HierarchicalThresholdChar,
		SemanticThresholdChar:     cfg.SemanticThresholdChar,
		MinHeadersForSemantic:     cfg.MinHeadersForSemantic,
	}
}
