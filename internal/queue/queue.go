// Package queue provides the durable message channels that drive the
// ingestion and query workers (spec §6): a document dropped on
// ingestion_queue, a submitted question on query_queue.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"ragcore/internal/logging"
	"ragcore/internal/rerrors"
)

const (
	TopicIngestion = "ingestion_queue"
	TopicQuery     = "query_queue"
)

// IngestionMessage is the ingestion_queue payload.
type IngestionMessage struct {
	DocumentID       uuid.UUID `json:"document_id"`
	FilePath         string    `json:"file_path"`
	OriginalFilename string    `json:"original_filename"`
	MimeType         string    `json:"mime_type,omitempty"`
	CorrelationID    string    `json:"correlation_id,omitempty"`
}

// QueryMessage is the query_queue payload.
type QueryMessage struct {
	QueryID        uuid.UUID   `json:"query_id"`
	QueryText      string      `json:"query_text"`
	DocumentFilter []uuid.UUID `json:"document_filter,omitempty"`
	DebugMode      bool        `json:"debug_mode,omitempty"`
	TopK           int         `json:"top_k,omitempty"`
	RerankTop      int         `json:"rerank_top,omitempty"`
	CorrelationID  string      `json:"correlation_id,omitempty"`
}

// Producer publishes a message keyed by id to a topic.
type Producer interface {
	Publish(ctx context.Context, topic, key string, payload any) error
	Close() error
}

// KafkaProducer is the production Producer.
type KafkaProducer struct {
	writer *kafka.Writer
}

// NewProducer builds a producer addressed at brokers with a least-bytes
// partition balancer.
func NewProducer(brokers []string) *KafkaProducer {
	return &KafkaProducer{writer: &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}}
}

func (p *KafkaProducer) Publish(ctx context.Context, topic, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return rerrors.Internal("marshal queue message failed", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: body,
	})
	if err != nil {
		return rerrors.Queue("publish failed", err).WithDetail("topic", topic)
	}
	return nil
}

func (p *KafkaProducer) Close() error { return p.writer.Close() }

// HandlerFunc processes one decoded message. An error is logged and the
// message's offset is committed anyway, so a failed job is never
// redelivered (the ingestion worker never requeues — see C17).
type HandlerFunc func(ctx context.Context, raw []byte) error

// Consumer is a single-partition-group reader with prefetch = 1: it fetches
// one message, hands it to the handler, and only commits the offset once
// the handler returns. Workers process jobs strictly one at a time per
// process; horizontal scaling comes from running more worker processes,
// never from a worker-local pool (spec §5).
type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{reader: kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})}
}

// Run blocks, processing messages one at a time until ctx is canceled.
func (c *Consumer) Run(ctx context.Context, handle HandlerFunc) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return rerrors.Queue("fetch message failed", err)
		}

		if err := handle(ctx, msg.Value); err != nil {
			logging.Log.WithField("topic", msg.Topic).WithField("partition", msg.Partition).
				WithField("offset", msg.Offset).WithField("error", err).
				Error("message handler failed; committing without requeue")
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return rerrors.Queue("commit message failed", err)
		}
	}
}

func (c *Consumer) Close() error { return c.reader.Close() }
