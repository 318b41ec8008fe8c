package queue

import "context"

// Client sends messages to the processing queues.
type Client interface {
	SendJob(ctx context.Context, msg JobMessage) error
	SendResult(ctx context.Context, msg ResultMessage) error
}

// AckFunc acknowledges a received message, removing it from the queue.
type AckFunc func(ctx context.Context) error

// ResultReceiver pulls result messages for the result consumer. The bool
// return reports whether a message was received before the wait elapsed.
type ResultReceiver interface {
	ReceiveResult(ctx context.Context) (ResultMessage, AckFunc, bool, error)
}

// JobReceiver pulls job messages for the worker.
type JobReceiver interface {
	ReceiveJob(ctx context.Context) (JobMessage, AckFunc, bool, error)
}
