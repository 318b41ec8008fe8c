package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
)

// SQSClient sends and receives queue messages via AWS SQS. The underlying
// client is safe for concurrent use, so no additional locking is needed
// around publish or consume calls.
type SQSClient struct {
	client         *sqs.Client
	jobQueueURL    string
	resultQueueURL string
}

// NewSQSClient constructs an SQS-backed queue client for the given queue URLs.
func NewSQSClient(ctx context.Context, region, jobQueueURL, resultQueueURL string) (*SQSClient, error) {
	if strings.TrimSpace(jobQueueURL) == "" {
		return nil, fmt.Errorf("job queue url is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SQSClient{
		client:         sqs.NewFromConfig(cfg),
		jobQueueURL:    jobQueueURL,
		resultQueueURL: resultQueueURL,
	}, nil
}

// SendJob delivers a job message to the OCR queue.
func (s *SQSClient) SendJob(ctx context.Context, msg JobMessage) error {
	payload, err := EncodeJob(msg)
	if err != nil {
		return fmt.Errorf("encode job message: %w", err)
	}
	return s.send(ctx, s.jobQueueURL, payload)
}

// SendResult delivers a result message to the result queue.
func (s *SQSClient) SendResult(ctx context.Context, msg ResultMessage) error {
	if strings.TrimSpace(s.resultQueueURL) == "" {
		return fmt.Errorf("result queue url is not configured")
	}
	payload, err := EncodeResult(msg)
	if err != nil {
		return fmt.Errorf("encode result message: %w", err)
	}
	return s.send(ctx, s.resultQueueURL, payload)
}

// ReceiveResult long-polls the result queue for a single message. The
// returned ack deletes the message; an unacked message becomes visible
// again after the queue's visibility timeout.
func (s *SQSClient) ReceiveResult(ctx context.Context) (ResultMessage, AckFunc, bool, error) {
	if strings.TrimSpace(s.resultQueueURL) == "" {
		return ResultMessage{}, nil, false, fmt.Errorf("result queue url is not configured")
	}

	resp, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(s.resultQueueURL),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     20,
	})
	if err != nil {
		return ResultMessage{}, nil, false, fmt.Errorf("sqs receive message: %w", err)
	}
	if len(resp.Messages) == 0 {
		return ResultMessage{}, nil, false, nil
	}

	raw := resp.Messages[0]
	msg, err := DecodeResult([]byte(aws.ToString(raw.Body)))
	if err != nil {
		// Undecodable payloads are removed so they do not wedge the queue.
		_, delErr := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(s.resultQueueURL),
			ReceiptHandle: raw.ReceiptHandle,
		})
		if delErr != nil {
			return ResultMessage{}, nil, false, fmt.Errorf("decode result message: %w (delete failed: %v)", err, delErr)
		}
		return ResultMessage{}, nil, false, fmt.Errorf("decode result message: %w", err)
	}

	ack := func(ackCtx context.Context) error {
		_, err := s.client.DeleteMessage(ackCtx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(s.resultQueueURL),
			ReceiptHandle: raw.ReceiptHandle,
		})
		if err != nil {
			return fmt.Errorf("sqs delete message: %w", err)
		}
		return nil
	}
	return msg, ack, true, nil
}

// ReceiveJob long-polls the job queue for a single message. The returned
// ack deletes the message; an unacked message becomes visible again after
// the queue's visibility timeout.
func (s *SQSClient) ReceiveJob(ctx context.Context) (JobMessage, AckFunc, bool, error) {
	resp, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(s.jobQueueURL),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     20,
	})
	if err != nil {
		return JobMessage{}, nil, false, fmt.Errorf("sqs receive message: %w", err)
	}
	if len(resp.Messages) == 0 {
		return JobMessage{}, nil, false, nil
	}

	raw := resp.Messages[0]
	msg, err := DecodeJob([]byte(aws.ToString(raw.Body)))
	if err != nil {
		// Undecodable payloads are removed so they do not wedge the queue.
		_, delErr := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(s.jobQueueURL),
			ReceiptHandle: raw.ReceiptHandle,
		})
		if delErr != nil {
			return JobMessage{}, nil, false, fmt.Errorf("decode job message: %w (delete failed: %v)", err, delErr)
		}
		return JobMessage{}, nil, false, fmt.Errorf("decode job message: %w", err)
	}

	ack := func(ackCtx context.Context) error {
		_, err := s.client.DeleteMessage(ackCtx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(s.jobQueueURL),
			ReceiptHandle: raw.ReceiptHandle,
		})
		if err != nil {
			return fmt.Errorf("sqs delete message: %w", err)
		}
		return nil
	}
	return msg, ack, true, nil
}

func (s *SQSClient) send(ctx context.Context, queueURL string, payload []byte) error {
	_, err := s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(string(payload)),
	})
	if err != nil {
		return fmt.Errorf("sqs send message: %w", err)
	}
	return nil
}

// Ping verifies that the job queue is reachable.
func (s *SQSClient) Ping(ctx context.Context) error {
	_, err := s.client.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl: aws.String(s.jobQueueURL),
	})
	if err != nil {
		return fmt.Errorf("sqs get queue attributes: %w", err)
	}
	return nil
}

// NewCorrelationID returns a fresh correlation id for a job request.
func NewCorrelationID() string {
	return uuid.NewString()
}

var _ Client = (*SQSClient)(nil)
var _ ResultReceiver = (*SQSClient)(nil)
var _ JobReceiver = (*SQSClient)(nil)
