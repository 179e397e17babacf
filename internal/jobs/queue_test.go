package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueueRoundTrip(t *testing.T) {
	q := NewMemoryQueue(4)
	pub := NewPublisher(q)
	ctx := context.Background()

	require.NoError(t, pub.Enqueue(ctx, NewTask(KindPursuit, "c1", "test")))
	require.NoError(t, pub.Enqueue(ctx, NewTask(KindFlashOffer, "c2", "test")))
	assert.Equal(t, 2, q.Len())

	msgs, err := q.Receive(ctx, 10, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	task, err := decodeTask(msgs[1].Body)
	require.NoError(t, err)
	assert.Equal(t, KindFlashOffer, task.Kind)
	assert.Equal(t, "c2", task.ClinicID)
	assert.NotEmpty(t, task.ID)
}

func TestMemoryQueueReceiveTimesOut(t *testing.T) {
	q := NewMemoryQueue(1)
	start := time.Now()
	msgs, err := q.Receive(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
}

func TestMemoryQueueReceiveCancelled(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := q.Receive(ctx, 1, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeTaskRejectsBadPayloads(t *testing.T) {
	for _, body := range []string{`{`, `{"kind":"bogus","clinic_id":"c1"}`, `{"kind":"pursuit"}`} {
		_, err := decodeTask(body)
		assert.Error(t, err, body)
	}
}

type fakeSQS struct {
	sent     []string
	deleted  []string
	messages []types.Message
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.sent = append(f.sent, aws.ToString(in.MessageBody))
	return &sqs.SendMessageOutput{MessageId: aws.String("m1")}, nil
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	n := int(in.MaxNumberOfMessages)
	if n > len(f.messages) {
		n = len(f.messages)
	}
	out := f.messages[:n]
	f.messages = f.messages[n:]
	return &sqs.ReceiveMessageOutput{Messages: out}, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func TestSQSQueue(t *testing.T) {
	client := &fakeSQS{messages: []types.Message{
		{MessageId: aws.String("m1"), Body: aws.String(`{"kind":"auto_renewal","clinic_id":"c1"}`), ReceiptHandle: aws.String("r1")},
	}}
	q := NewSQSQueue(client, "https://sqs.us-east-1.amazonaws.com/000000000000/clinic-jobs")
	ctx := context.Background()

	require.NoError(t, q.Send(ctx, "body"))
	assert.Equal(t, []string{"body"}, client.sent)

	msgs, err := q.Receive(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "r1", msgs[0].ReceiptHandle)

	require.NoError(t, q.Delete(ctx, "r1"))
	require.NoError(t, q.Delete(ctx, ""))
	assert.Equal(t, []string{"r1"}, client.deleted)
}
