package queue

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"github.com/jhoicas/Ventas-api/internal/application/export"
	"github.com/jhoicas/Ventas-api/pkg/config"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// PubSub cola sobre un tópico y una suscripción de Google Pub/Sub.
type PubSub struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	sub    *pubsub.Subscription
	log    *logger.Logger
}

// NewPubSub conecta y crea el tópico y la suscripción si no existen.
func NewPubSub(ctx context.Context, cfg config.PubSubConfig, log *logger.Logger) (*PubSub, error) {
	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}

	topic := client.Topic(cfg.Topic)
	ok, err := topic.Exists(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("pubsub topic %s: %w", cfg.Topic, err)
	}
	if !ok {
		if topic, err = client.CreateTopic(ctx, cfg.Topic); err != nil {
			client.Close()
			return nil, fmt.Errorf("crear topic %s: %w", cfg.Topic, err)
		}
	}

	sub := client.Subscription(cfg.Subscription)
	ok, err = sub.Exists(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("pubsub subscription %s: %w", cfg.Subscription, err)
	}
	if !ok {
		sub, err = client.CreateSubscription(ctx, cfg.Subscription, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 60 * time.Second,
		})
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("crear subscription %s: %w", cfg.Subscription, err)
		}
	}
	return &PubSub{client: client, topic: topic, sub: sub, log: log}, nil
}

func (q *PubSub) Submit(ctx context.Context, job export.Job) error {
	b, err := encode(job)
	if err != nil {
		return err
	}
	res := q.topic.Publish(ctx, &pubsub.Message{
		Data:       b,
		Attributes: map[string]string{"company_id": job.CompanyID},
	})
	if _, err := res.Get(ctx); err != nil {
		return fmt.Errorf("publicar trabajo %s: %w", job.ID, err)
	}
	return nil
}

// Consume recibe mensajes hasta que ctx se cancele. Un mensaje ilegible se confirma
// para que no vuelva; un error del handler lo devuelve a la cola.
func (q *PubSub) Consume(ctx context.Context, h Handler) error {
	return q.sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		job, err := decode(msg.Data)
		if err != nil {
			q.log.Error().Err(err).Str("message_id", msg.ID).Msg("mensaje descartado")
			msg.Ack()
			return
		}
		if err := h(ctx, job); err != nil {
			q.log.Error().Err(err).Str("job_id", job.ID).Msg("exportación falló; se reintentará")
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// Close vacía los mensajes pendientes de publicar y cierra el cliente.
func (q *PubSub) Close() error {
	q.topic.Stop()
	return q.client.Close()
}
