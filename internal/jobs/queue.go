package jobs

import "context"

type queueClient interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// Publisher enqueues tasks onto a queue.
type Publisher struct {
	queue queueClient
}

func NewPublisher(queue queueClient) *Publisher {
	if queue == nil {
		panic("jobs: queue cannot be nil")
	}
	return &Publisher{queue: queue}
}

// Enqueue serializes t and sends it.
func (p *Publisher) Enqueue(ctx context.Context, t Task) error {
	body, err := t.encode()
	if err != nil {
		return err
	}
	return p.queue.Send(ctx, body)
}
