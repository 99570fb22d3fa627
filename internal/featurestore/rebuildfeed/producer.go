package rebuildfeed

import (
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
)

// Producer publishes RebuildEvents after an Ingest call replaces the
// features table.
type Producer struct {
	topic    string
	producer sarama.SyncProducer
}

// NewProducer dials brokers for synchronous, leader-acked publishes: a
// rebuild notification that silently fails to send would leave other
// instances serving a stale generation indefinitely.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Return.Successes = true

	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("rebuildfeed: new producer: %w", err)
	}
	return &Producer{topic: topic, producer: p}, nil
}

func (p *Producer) Publish(ev RebuildEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("rebuildfeed: encode event: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.TablePath),
		Value: sarama.ByteEncoder(payload),
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("rebuildfeed: publish: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("rebuildfeed: close producer: %w", err)
	}
	return nil
}
