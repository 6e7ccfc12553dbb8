package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const (
	defaultRegion = "us-east-1"

	// RequestIDAttribute mirrors Message.RequestID as an SQS attribute so it
	// is visible without decoding the body.
	RequestIDAttribute = "request_id"
)

// SQSSender is the part of the SQS client used for enqueueing.
type SQSSender interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSClient sends processing jobs to one SQS queue.
type SQSClient struct {
	client   *sqs.Client
	sender   SQSSender
	queueURL string
}

// NewSQSClient loads the default AWS config. An empty region falls back to
// us-east-1.
func NewSQSClient(ctx context.Context, region, queueURL string) (*SQSClient, error) {
	if strings.TrimSpace(region) == "" {
		region = defaultRegion
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(strings.TrimSpace(region)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := sqs.NewFromConfig(cfg)
	q, err := NewSQSSender(client, queueURL)
	if err != nil {
		return nil, err
	}
	q.client = client
	return q, nil
}

// NewSQSSender wraps an existing sender.
func NewSQSSender(sender SQSSender, queueURL string) (*SQSClient, error) {
	queueURL = strings.TrimSpace(queueURL)
	if queueURL == "" {
		return nil, fmt.Errorf("SQS_QUEUE_URL is required")
	}
	return &SQSClient{sender: sender, queueURL: queueURL}, nil
}

// Raw returns the SDK client the worker polls with. It is nil for clients
// built by NewSQSSender.
func (s *SQSClient) Raw() *sqs.Client { return s.client }

func (s *SQSClient) QueueURL() string { return s.queueURL }

func (s *SQSClient) Send(ctx context.Context, msg Message) error {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode sqs message: %w", err)
	}
	in := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(payload)),
	}
	if msg.RequestID != "" {
		in.MessageAttributes = map[string]sqstypes.MessageAttributeValue{
			RequestIDAttribute: {DataType: aws.String("String"), StringValue: aws.String(msg.RequestID)},
		}
	}
	if _, err := s.sender.SendMessage(ctx, in); err != nil {
		return fmt.Errorf("sqs send resume %d: %w", msg.ResumeID, err)
	}
	return nil
}

var _ Client = (*SQSClient)(nil)
