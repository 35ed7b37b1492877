package events

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	fail   error
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.inputs = append(f.inputs, params)
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestSQSPublisherSendsEntry(t *testing.T) {
	client := &fakeSQS{}
	pub := NewSQSPublisher(client, "https://sqs.example/queue", nil)
	if pub == nil {
		t.Fatal("expected publisher")
	}

	entry := OutboxEntry{
		ID:         uuid.New(),
		CalendarID: "cal-1",
		Type:       TypeBookingCreatedV1,
		Payload:    []byte(`{"booking_id":"b-1"}`),
	}
	if err := pub.Handle(context.Background(), entry); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(client.inputs) != 1 {
		t.Fatalf("want 1 message, got %d", len(client.inputs))
	}

	input := client.inputs[0]
	if aws.ToString(input.QueueUrl) != "https://sqs.example/queue" {
		t.Errorf("wrong queue url: %s", aws.ToString(input.QueueUrl))
	}
	if aws.ToString(input.MessageBody) != `{"booking_id":"b-1"}` {
		t.Errorf("wrong body: %s", aws.ToString(input.MessageBody))
	}
	if got := aws.ToString(input.MessageAttributes["event_type"].StringValue); got != TypeBookingCreatedV1 {
		t.Errorf("wrong event_type attribute: %s", got)
	}
}

func TestSQSPublisherPropagatesError(t *testing.T) {
	pub := NewSQSPublisher(&fakeSQS{fail: errors.New("throttled")}, "https://sqs.example/queue", nil)

	err := pub.Handle(context.Background(), OutboxEntry{ID: uuid.New(), Type: TypeBookingCreatedV1})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNewSQSPublisherUnconfigured(t *testing.T) {
	if pub := NewSQSPublisher(nil, "https://sqs.example/queue", nil); pub != nil {
		t.Error("nil client should yield nil publisher")
	}
	if pub := NewSQSPublisher(&fakeSQS{}, "", nil); pub != nil {
		t.Error("empty queue URL should yield nil publisher")
	}
}
