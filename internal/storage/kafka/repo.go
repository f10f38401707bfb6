// Package kafka publishes the fact table to a Kafka topic, one JSON message
// per row. storage.db.dsn holds the comma-separated bootstrap brokers and
// storage.db.table the topic. The first column's value is the message key.
package kafka

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"
)

// Config holds the topic and brokers.
type Config struct {
	Brokers []string
	Topic   string
}

// ParseBrokers splits a comma-separated broker list, dropping blanks.
func ParseBrokers(dsn string) []string {
	var out []string
	for _, a := range strings.Split(dsn, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// messageWriter is the subset of *kafka.Writer the repository uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Repository writes rows to one topic.
type Repository struct {
	cfg Config
	w   messageWriter
}

// NewRepository returns a repository backed by a synchronous, all-acks
// kafka.Writer. Messages with the same key land on the same partition.
func NewRepository(_ context.Context, cfg Config) (*Repository, func(), error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil, fmt.Errorf("kafka: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, nil, fmt.Errorf("kafka: topic is required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	r := &Repository{cfg: cfg, w: w}
	return r, func() { _ = w.Close() }, nil
}

// CopyFrom encodes each row as a JSON object in column order and writes the
// batch in a single call.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	msgs := make([]kafka.Message, 0, len(rows))
	for i, row := range rows {
		val, err := encodeRow(columns, row)
		if err != nil {
			return 0, fmt.Errorf("kafka: row %d: %w", i, err)
		}
		msg := kafka.Message{Value: val}
		if len(row) > 0 && row[0] != nil {
			msg.Key = []byte(fmt.Sprint(row[0]))
		}
		msgs = append(msgs, msg)
	}
	if err := r.w.WriteMessages(ctx, msgs...); err != nil {
		return 0, fmt.Errorf("kafka: write %d messages to %s: %w", len(msgs), r.cfg.Topic, err)
	}
	return int64(len(msgs)), nil
}

// Exec is not meaningful for a topic.
func (r *Repository) Exec(context.Context, string) error {
	return fmt.Errorf("kafka: statements are not supported")
}

func encodeRow(columns []string, row []any) ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, c := range columns {
		if i > 0 {
			b.WriteByte(',')
		}
		k, _ := json.Marshal(c)
		b.Write(k)
		b.WriteByte(':')
		var v any
		if i < len(row) {
			v = row[i]
		}
		enc, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c, err)
		}
		b.Write(enc)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}
