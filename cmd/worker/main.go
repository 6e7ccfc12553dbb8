package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"hirelens-backend/internal/bootstrap"
	"hirelens-backend/internal/queue"
	"hirelens-backend/internal/shared/config"
	"hirelens-backend/internal/shared/metrics"
	"hirelens-backend/internal/shared/telemetry"
	"hirelens-backend/internal/workerproc"
)

const (
	maxMessagesPerPoll = 10
	longPollSeconds    = 20
)

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

func main() {
	logger := telemetry.Logger()
	defer func() { _ = logger.Sync() }()

	cfg := config.Load()
	if cfg.SQSQueueURL == "" {
		logger.Fatal("SQS_QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		logger.Fatal("bootstrap build", zap.Error(err))
	}
	sqsQueue, ok := app.Queue.(*queue.SQSClient)
	if !ok {
		logger.Fatal("sqs queue not configured")
	}

	concurrency := cfg.WorkerConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	logger.Info("worker started",
		zap.String("queue", cfg.SQSQueueURL),
		zap.Int("concurrency", concurrency),
		zap.Duration("visibility", cfg.SQSVisibility),
	)

	w := &worker{
		client:     sqsQueue.Raw(),
		queueURL:   sqsQueue.QueueURL(),
		processor:  app.ResumesService,
		visibility: cfg.SQSVisibility,
		sem:        make(chan struct{}, concurrency),
	}
	w.run(ctx)

	logger.Info("shutdown requested", zap.Duration("timeout", cfg.ShutdownTimeout))
	if !w.wait(cfg.ShutdownTimeout) {
		logger.Warn("shutdown timeout reached; exiting with in-flight messages")
	}
}

type worker struct {
	client     sqsAPI
	queueURL   string
	processor  workerproc.Processor
	visibility time.Duration
	sem        chan struct{}
	wg         sync.WaitGroup
}

// run polls until ctx is cancelled. Each message runs in its own goroutine,
// bounded by the semaphore.
func (w *worker) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		resp, err := w.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:                    aws.String(w.queueURL),
			MaxNumberOfMessages:         maxMessagesPerPoll,
			WaitTimeSeconds:             longPollSeconds,
			VisibilityTimeout:           int32(w.visibility / time.Second),
			MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{sqstypes.MessageSystemAttributeNameApproximateReceiveCount},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return
			}
			telemetry.Error("worker.resume.receive_failed", map[string]any{"error": err.Error()})
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				return
			case w.sem <- struct{}{}:
			}
			w.wg.Add(1)
			go func(m sqstypes.Message) {
				defer w.wg.Done()
				defer func() { <-w.sem }()
				// In-flight messages finish even after shutdown is requested.
				handleMessage(context.WithoutCancel(ctx), w.client, w.queueURL, w.processor, m)
			}(msg)
		}
	}
}

// wait blocks until in-flight messages finish or timeout passes.
func (w *worker) wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// handleMessage deletes the message after successful processing or when it
// can never be processed. Other failures leave it for redelivery.
func handleMessage(ctx context.Context, client sqsAPI, queueURL string, processor workerproc.Processor, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)
	decoded, meta, err := workerproc.ParseMessage(body)
	if err != nil {
		fields := baseFields(msg, decoded.ResumeID, decoded.RequestID)
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		fields["error"] = err.Error()
		telemetry.Error("worker.resume.invalid_message", fields)
		if deleteMessage(ctx, client, queueURL, msg, decoded.ResumeID, decoded.RequestID) {
			metrics.IncWorkerMessage("dropped")
		}
		return
	}

	telemetry.Info("worker.resume.received", baseFields(msg, decoded.ResumeID, decoded.RequestID))

	if err := workerproc.HandleMessage(workerproc.WithParsedMessage(ctx, decoded), processor, body); err != nil {
		fields := baseFields(msg, decoded.ResumeID, decoded.RequestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.resume.failed", fields)
		metrics.IncWorkerMessage("retry")
		return
	}

	if deleteMessage(ctx, client, queueURL, msg, decoded.ResumeID, decoded.RequestID) {
		telemetry.Info("worker.resume.completed", baseFields(msg, decoded.ResumeID, decoded.RequestID))
		metrics.IncWorkerMessage("processed")
	}
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message, resumeID int64, requestID string) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, resumeID, requestID)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.resume.delete_failed", fields)
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, resumeID, requestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.resume.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, resumeID int64, requestID string) map[string]any {
	fields := map[string]any{
		"resume_id":      resumeID,
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if strings.TrimSpace(requestID) != "" {
		fields["request_id"] = requestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	raw := msg.Attributes[string(sqstypes.MessageSystemAttributeNameApproximateReceiveCount)]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}
