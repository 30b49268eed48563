package repository

import (
	"context"
	"fmt"

	"DemandCast/internal/domain/models"
	pkgkafka "DemandCast/pkg/kafka"
	applogger "DemandCast/pkg/logger"
)

// KafkaEventPublisher implements EventPublisher over the shared producer,
// keyed by the winning model so per-model event streams stay ordered.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
	l        *applogger.Logger
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string, l *applogger.Logger) *KafkaEventPublisher {
	if topic == "" {
		topic = "demandcast.training.completed"
	}
	return &KafkaEventPublisher{producer: producer, topic: topic, l: l}
}

func (p *KafkaEventPublisher) PublishTrainingCompleted(ctx context.Context, ev *models.TrainingEvent) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(ev.BestModel), ev); err != nil {
		return fmt.Errorf("publish training event: %w", err)
	}
	p.l.Info("training event published",
		applogger.String("topic", p.topic),
		applogger.String("best_model", string(ev.BestModel)),
	)
	return nil
}

func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}
