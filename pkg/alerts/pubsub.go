package alerts

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// pubsubAlerter implements the Alerter interface for GCP Pub/Sub topics.
type pubsubAlerter struct {
	id    string
	typ   string
	topic *pubsub.Topic
	log   Logger
}

// newPubSubAlerter creates a new Pub/Sub alerter with the given configuration.
func newPubSubAlerter(ctx context.Context, cfg AlerterConfig, log Logger) (Alerter, error) {
	if cfg.PubSub == nil {
		return nil, fmt.Errorf("alerter %q missing pubsub configuration", cfg.ID)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var opts []option.ClientOption
	if cfg.PubSub.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.PubSub.Endpoint))
	}
	if cfg.PubSub.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.PubSub.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	return &pubsubAlerter{
		id:    cfg.ID,
		typ:   TypePubSub,
		topic: client.Topic(cfg.PubSub.Topic),
		log:   ensureLogger(log),
	}, nil
}

func (p *pubsubAlerter) ID() string   { return p.id }
func (p *pubsubAlerter) Type() string { return p.typ }

// Notify publishes the alert to the configured Pub/Sub topic and waits for
// the server acknowledgement.
func (p *pubsubAlerter) Notify(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       payload,
		Attributes: map[string]string{"severity": alert.Severity},
	})
	if _, err := result.Get(ctx); err != nil {
		p.log.ErrorObj("pubsub alerter publish failed", "alerter_pubsub_error", map[string]any{
			"alerter_id": p.id,
			"error":      err.Error(),
		})
		return fmt.Errorf("publish to pubsub: %w", err)
	}
	p.log.DebugObj("pubsub alerter delivered alert", "alerter_pubsub_delivery", map[string]any{
		"alerter_id": p.id,
	})
	return nil
}
