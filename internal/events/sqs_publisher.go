package events

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/mentorbase/platform/pkg/logging"
)

// SQSAPI is the subset of the SQS client the publisher needs.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher forwards outbox entries to an SQS queue for downstream
// consumers (analytics, CRM sync).
type SQSPublisher struct {
	client   SQSAPI
	queueURL string
	logger   *logging.Logger
}

// NewSQSPublisher creates a publisher. Returns nil when the queue URL is
// empty so callers can wire it unconditionally.
func NewSQSPublisher(client SQSAPI, queueURL string, logger *logging.Logger) *SQSPublisher {
	if client == nil || queueURL == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SQSPublisher{client: client, queueURL: queueURL, logger: logger}
}

// Handle implements DeliveryHandler.
func (p *SQSPublisher) Handle(ctx context.Context, entry OutboxEntry) error {
	if p == nil {
		return nil
	}
	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(entry.Payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(entry.Type),
			},
			"calendar_id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(entry.CalendarID),
			},
		},
	}
	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("events: sqs publish: %w", err)
	}
	p.logger.Debug("event published to sqs", "event_id", entry.ID, "type", entry.Type)
	return nil
}

var _ DeliveryHandler = (*SQSPublisher)(nil)
