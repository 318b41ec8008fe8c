package queue

import (
	"context"
	"sync"
)

// MemoryClient is an in-memory queue for dev mode and tests. Results are
// buffered on a channel so a consumer can drain them like a real queue.
type MemoryClient struct {
	mu      sync.Mutex
	jobs    []JobMessage
	results chan ResultMessage
}

// NewMemoryClient constructs a MemoryClient.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		results: make(chan ResultMessage, 64),
	}
}

// SendJob records a job message.
func (m *MemoryClient) SendJob(ctx context.Context, msg JobMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, msg)
	return nil
}

// SendResult buffers a result message for the consumer.
func (m *MemoryClient) SendResult(ctx context.Context, msg ResultMessage) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case m.results <- msg:
		return nil
	}
}

// ReceiveResult pops a buffered result message, waiting until one arrives
// or the context is canceled.
func (m *MemoryClient) ReceiveResult(ctx context.Context) (ResultMessage, AckFunc, bool, error) {
	select {
	case <-ctx.Done():
		return ResultMessage{}, nil, false, ctx.Err()
	case msg := <-m.results:
		ack := func(context.Context) error { return nil }
		return msg, ack, true, nil
	}
}

// ReceiveJob pops the oldest job message without waiting.
func (m *MemoryClient) ReceiveJob(ctx context.Context) (JobMessage, AckFunc, bool, error) {
	if err := ctx.Err(); err != nil {
		return JobMessage{}, nil, false, err
	}
	msg, ok := m.PopJob()
	if !ok {
		return JobMessage{}, nil, false, nil
	}
	ack := func(context.Context) error { return nil }
	return msg, ack, true, nil
}

// Jobs returns a copy of the job messages sent so far.
func (m *MemoryClient) Jobs() []JobMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]JobMessage(nil), m.jobs...)
}

// PopJob removes and returns the oldest job message, if any.
func (m *MemoryClient) PopJob() (JobMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.jobs) == 0 {
		return JobMessage{}, false
	}
	msg := m.jobs[0]
	m.jobs = m.jobs[1:]
	return msg, true
}

var _ Client = (*MemoryClient)(nil)
var _ ResultReceiver = (*MemoryClient)(nil)
var _ JobReceiver = (*MemoryClient)(nil)
