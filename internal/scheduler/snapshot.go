package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dwhreports/models"
	"dwhreports/pkg/logger"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robfig/cron/v3"
)

var log = logger.New("scheduler")

type Catalogue interface {
	Names() []string
	Run(ctx context.Context, name string) (any, error)
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, durable bool, msg amqp.Publishing) error
}

// Snapshotter runs the whole catalogue on a cron schedule and publishes the
// results as a single Snapshot message.
type Snapshotter struct {
	catalogue Catalogue
	publisher Publisher
	queue     string
	cron      *cron.Cron
	now       func() time.Time
	newID     func() string
}

func NewSnapshotter(catalogue Catalogue, publisher Publisher, queue string) *Snapshotter {
	return &Snapshotter{
		catalogue: catalogue,
		publisher: publisher,
		queue:     queue,
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Start schedules snapshots according to spec, e.g. "@hourly" or "0 */6 * * *".
func (s *Snapshotter) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.Publish(context.Background()); err != nil {
			log.Errorf("✗ Snapshot failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid snapshot schedule %q: %w", spec, err)
	}
	s.cron.Start()
	log.Infof("🚀 Snapshot scheduler started: schedule=%s queue=%s", spec, s.queue)
	return nil
}

// Stop halts the schedule and waits for a running snapshot to finish.
func (s *Snapshotter) Stop() {
	<-s.cron.Stop().Done()
}

// Take runs every report in catalogue order. Reports holds each result
// already encoded as JSON. A report that fails to run or to encode is
// recorded in Errors and does not stop the others.
func (s *Snapshotter) Take(ctx context.Context) *models.Snapshot {
	snap := &models.Snapshot{
		ID:      s.newID(),
		Reports: make(map[string]any),
	}
	for _, name := range s.catalogue.Names() {
		rows, err := s.catalogue.Run(ctx, name)
		if err == nil {
			// encoded per report so one bad value cannot sink the snapshot
			var raw []byte
			if raw, err = json.Marshal(rows); err == nil {
				snap.Reports[name] = json.RawMessage(raw)
				continue
			}
			err = fmt.Errorf("encode report %s: %w", name, err)
		}
		if snap.Errors == nil {
			snap.Errors = make(map[string]string)
		}
		snap.Errors[name] = err.Error()
	}
	snap.GeneratedAt = s.now().UTC()
	return snap
}

func (s *Snapshotter) Publish(ctx context.Context) error {
	snap := s.Take(ctx)

	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	err = s.publisher.Publish(ctx, s.queue, true, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    snap.ID,
		Timestamp:    snap.GeneratedAt,
		Body:         body,
	})
	if err != nil {
		return err
	}

	log.Infof("✓ Snapshot %s published: reports=%d errors=%d", snap.ID, len(snap.Reports), len(snap.Errors))
	return nil
}
