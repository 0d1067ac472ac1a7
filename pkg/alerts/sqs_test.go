package alerts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSQSAlerterNotifySuccess(t *testing.T) {
	client := &fakeSQSClient{}
	alerter := &sqsAlerter{
		id:       "queue",
		typ:      TypeSQS,
		queueURL: "https://sqs.eu-west-1.amazonaws.com/1/alerts",
		client:   client,
		log:      noopLogger{},
	}

	if err := alerter.Notify(context.Background(), Warning("provider rejected credential")); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.QueueUrl); got != "https://sqs.eu-west-1.amazonaws.com/1/alerts" {
		t.Fatalf("QueueUrl = %s", got)
	}
	attr, ok := client.input.MessageAttributes["severity"]
	if !ok || aws.ToString(attr.StringValue) != SeverityWarning {
		t.Fatalf("severity attribute missing or wrong: %#v", attr)
	}
	if !strings.Contains(aws.ToString(client.input.MessageBody), "provider rejected credential") {
		t.Fatalf("body missing alert text: %s", aws.ToString(client.input.MessageBody))
	}
}

func TestSQSAlerterNotifyError(t *testing.T) {
	client := &fakeSQSClient{err: errors.New("boom")}
	alerter := &sqsAlerter{
		id:       "queue",
		typ:      TypeSQS,
		queueURL: "https://sqs.eu-west-1.amazonaws.com/1/alerts",
		client:   client,
		log:      noopLogger{},
	}

	if err := alerter.Notify(context.Background(), Warning("x")); err == nil {
		t.Fatalf("expected error from failing client")
	}
}
