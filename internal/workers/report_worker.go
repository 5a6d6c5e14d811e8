package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dwhreports/internal/rabbitmq"
	"dwhreports/models"
	"dwhreports/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

var log = logger.New("workers")

// Runner runs one named report.
type Runner interface {
	Run(ctx context.Context, name string) (any, error)
}

// Publisher sends a message to a queue through the default exchange.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, durable bool, msg amqp.Publishing) error
}

// Consumer delivers queue messages to a handler.
type Consumer interface {
	ConsumeQueue(ctx context.Context, queueName string, handler func(context.Context, amqp.Delivery) error) error
}

// ReportWorker answers ReportRequest messages. Each reply goes to the
// request's ReplyTo queue with the same CorrelationId.
type ReportWorker struct {
	consumer  Consumer
	publisher Publisher
	runner    Runner
	queueName string
	timeout   time.Duration
	now       func() time.Time
}

func NewReportWorker(consumer Consumer, publisher Publisher, runner Runner, queueName string, timeout time.Duration) *ReportWorker {
	return &ReportWorker{
		consumer:  consumer,
		publisher: publisher,
		runner:    runner,
		queueName: queueName,
		timeout:   timeout,
		now:       time.Now,
	}
}

func (w *ReportWorker) Start(ctx context.Context) error {
	log.Infof("🚀 Starting Report Worker for queue: %s", w.queueName)
	return w.consumer.ConsumeQueue(ctx, w.queueName, w.handleMessage)
}

func (w *ReportWorker) handleMessage(ctx context.Context, msg amqp.Delivery) error {
	if msg.ReplyTo == "" {
		return fmt.Errorf("%w: request %s has no reply_to", rabbitmq.ErrDiscard, msg.CorrelationId)
	}

	var req models.ReportRequest
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		return fmt.Errorf("%w: failed to unmarshal report request: %v", rabbitmq.ErrDiscard, err)
	}

	log.Infof("📦 Processing report request: report=%s correlation_id=%s", req.Report, msg.CorrelationId)

	runCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	resp := models.ReportResponse{Report: req.Report}
	rows, err := w.runner.Run(runCtx, req.Report)
	resp.GeneratedAt = w.now().UTC()
	if err != nil {
		log.Warningf("✗ Report %s failed: %v", req.Report, err)
		resp.Error = err.Error()
	} else {
		resp.Rows = rows
	}

	body, err := json.Marshal(resp)
	if err != nil {
		// the requester still gets a reply when the rows cannot be encoded
		log.Warningf("✗ Report %s result not encodable: %v", req.Report, err)
		resp.Rows = nil
		resp.Error = fmt.Sprintf("encode report %s: %v", req.Report, err)
		if body, err = json.Marshal(resp); err != nil {
			return fmt.Errorf("%w: failed to marshal report response: %v", rabbitmq.ErrDiscard, err)
		}
	}

	pubCtx, pubCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pubCancel()

	err = w.publisher.Publish(pubCtx, msg.ReplyTo, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: msg.CorrelationId,
		Timestamp:     resp.GeneratedAt,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish reply for %s: %w", req.Report, err)
	}

	if resp.Error == "" {
		log.Infof("✓ Report replied: report=%s correlation_id=%s", req.Report, msg.CorrelationId)
	}
	return nil
}
