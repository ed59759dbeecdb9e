// Command query-worker runs the C18 agentic retrieval loop: it consumes
// query queue messages, embeds and retrieves candidates, evaluates and
// refines, and persists a cited answer.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"ragcore/internal/config"
	"ragcore/internal/embedding"
	"ragcore/internal/llmprovider"
	"ragcore/internal/logging"
	"ragcore/internal/queue"
	"ragcore/internal/queryworker"
	"ragcore/internal/retrieval"
	"ragcore/internal/sparse"
	"ragcore/internal/store"
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

	vectors, err := buildVectorStore(cfg.VectorStore)
	if err != nil {
		logging.Log.WithError(err).Fatal("failed to initialize vector store")
	}

	sparseIndex, err := buildSparseIndex(ctx, st, cfg.Retrieval)
	if err != nil {
		logging.Log.WithError(err).Fatal("failed to build keyword index")
	}

	tok, err := tokenizer.New("cl100k_base")
	if err != nil {
		logging.Log.WithError(err).Fatal("failed to initialize tokenizer")
	}

	provider := llmprovider.NewOpenAI(cfg.LLM.APIKey, cfg.LLM.Host, cfg.LLM.Model)
	embedBackend := embedding.NewOpenAIBackend(cfg.Embedding.APIKey, cfg.Embedding.Host)
	embedder := embedding.NewClient(embedBackend, cfg.Embedding.Model, cfg.Embedding.Dimensions,
		cfg.Embedding.BatchSize, cfg.Embedding.PerItemMaxLen, tok)

	worker := queryworker.NewWorker(st, &retrieval.Retriever{Vectors: vectors, Sparse: sparseIndex}, embedder, provider, cfg.LLM.Model,
		queryworker.Config{
			MaxIterations:     cfg.Agent.MaxIterations,
			TopK:              cfg.Retrieval.DefaultTopK,
			RerankTop:         cfg.Retrieval.DefaultRerankTop,
			RRFK:              cfg.Retrieval.RRFK,
			ChunksCollection:  cfg.VectorStore.Collection + "_chunks",
			SummaryCollection: cfg.VectorStore.Collection + "_summaries",
			QACollection:      cfg.VectorStore.Collection + "_qa",
		})

	consumer := queue.NewConsumer(cfg.Queue.Brokers, cfg.Queue.ConsumerGroup, cfg.Queue.QueryTopic)
	defer consumer.Close()

	logging.Log.Info("query worker started")
	err = consumer.Run(ctx, func(ctx context.Context, raw []byte) error {
		var msg queue.QueryMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			logging.Log.WithError(err).Error("failed to decode query message")
			return nil // malformed message, drop without retry
		}
		filter := make([]string, len(msg.DocumentFilter))
		for i, id := range msg.DocumentFilter {
			filter[i] = id.String()
		}
		return worker.Answer(ctx, msg.QueryID, msg.QueryText, filter)
	})
	if err != nil && ctx.Err() == nil {
		logging.Log.WithError(err).Fatal("query worker stopped unexpectedly")
	}
	logging.Log.Info("query worker shut down")
}

func buildVectorStore(cfg config.VectorStoreConfig) (vectorstore.Store, error) {
	if cfg.Backend == "memory" {
		return vectorstore.NewMemory(), nil
	}
	return vectorstore.NewQdrant(cfg.DSN)
}

// buildSparseIndex loads every persisted chunk across all documents into a
// BM25 index at startup. The index is a point-in-time snapshot: it does not
// see documents ingested after the query worker starts.
func buildSparseIndex(ctx context.Context, st *store.Store, cfg config.RetrievalConfig) (*sparse.Index, error) {
	if !cfg.EnableHybrid {
		return nil, nil
	}

	docs, err := st.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	corpus := make(map[string]string)
	for _, d := range docs {
		chunks, err := st.ListChunks(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		for _, c := range chunks {
			corpus[d.ID.String()+"-chunk-"+strconv.Itoa(c.Index)] = c.Text
		}
	}

	return sparse.New(corpus, cfg.BM25K1, cfg.BM25B), nil
}
