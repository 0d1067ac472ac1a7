package alerts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// snsClient defines the minimal subset of the SNS client used by snsAlerter.
type snsClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// snsAlerter implements the Alerter interface for AWS SNS topics.
type snsAlerter struct {
	id       string
	typ      string
	topicARN string
	client   snsClient
	log      Logger
}

// newSNSAlerter creates a new SNS alerter with the given configuration.
func newSNSAlerter(ctx context.Context, cfg AlerterConfig, log Logger) (Alerter, error) {
	if cfg.SNS == nil {
		return nil, fmt.Errorf("alerter %q missing sns configuration", cfg.ID)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	awsCfg, err := loadAWSConfig(ctx, cfg.SNS.Region, cfg.SNS.AccessKeyID, cfg.SNS.SecretAccessKey)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &snsAlerter{
		id:       cfg.ID,
		typ:      TypeSNS,
		topicARN: cfg.SNS.TopicARN,
		client:   sns.NewFromConfig(awsCfg),
		log:      ensureLogger(log),
	}, nil
}

func (s *snsAlerter) ID() string   { return s.id }
func (s *snsAlerter) Type() string { return s.typ }

// Notify publishes the alert to the configured SNS topic.
func (s *snsAlerter) Notify(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	input := &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"severity": {
				DataType:    aws.String("String"),
				StringValue: aws.String(alert.Severity),
			},
		},
	}

	if _, err := s.client.Publish(ctx, input); err != nil {
		s.log.ErrorObj("sns alerter publish failed", "alerter_sns_error", map[string]any{
			"alerter_id": s.id,
			"error":      err.Error(),
		})
		return fmt.Errorf("publish to sns: %w", err)
	}
	s.log.DebugObj("sns alerter delivered alert", "alerter_sns_delivery", map[string]any{
		"alerter_id": s.id,
	})
	return nil
}
