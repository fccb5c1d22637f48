// Package forward publishes incident signals to a Kafka topic.
// Forwarding is optional and best-effort: a broker failure never fails
// the scan that produced the signals.
package forward

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/aalejandroaraujo/winlog-mcp/internal/model"
)

type KafkaForwarder struct {
	writer *kafka.Writer
}

func NewKafkaForwarder(brokers []string, topic string) *KafkaForwarder {
	return &KafkaForwarder{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.LeastBytes{},
		},
	}
}

// Forward publishes one message per signal, keyed by pattern name so
// consumers can partition by failure type.
func (f *KafkaForwarder) Forward(ctx context.Context, signals []model.IncidentSignal) error {
	if len(signals) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(signals))
	for _, sig := range signals {
		data, err := json.Marshal(sig)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(sig.Pattern),
			Value: data,
			Time:  sig.Record.TimeCreated,
		})
	}
	return f.writer.WriteMessages(ctx, msgs...)
}

func (f *KafkaForwarder) Close() error {
	return f.writer.Close()
}
