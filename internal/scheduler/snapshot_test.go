package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"dwhreports/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalogue struct {
	rows map[string]any
	errs map[string]error
}

func (c *fakeCatalogue) Names() []string {
	return []string{"total-orders", "peak-hours", "top-states"}
}

func (c *fakeCatalogue) Run(ctx context.Context, name string) (any, error) {
	if err := c.errs[name]; err != nil {
		return nil, err
	}
	return c.rows[name], nil
}

type fakePublisher struct {
	routingKey string
	durable    bool
	msg        amqp.Publishing
	calls      int
	err        error
}

func (p *fakePublisher) Publish(ctx context.Context, routingKey string, durable bool, msg amqp.Publishing) error {
	p.calls++
	p.routingKey, p.durable, p.msg = routingKey, durable, msg
	return p.err
}

func newTestSnapshotter(cat Catalogue, pub Publisher) *Snapshotter {
	s := NewSnapshotter(cat, pub, "dwh.reports.snapshots")
	s.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	s.newID = func() string { return "snap-1" }
	return s
}

func TestTakeRecordsFailuresAndContinues(t *testing.T) {
	cat := &fakeCatalogue{
		rows: map[string]any{"total-orders": int64(5), "top-states": []string{"SP"}},
		errs: map[string]error{"peak-hours": errors.New("report peak-hours: timeout")},
	}
	s := newTestSnapshotter(cat, &fakePublisher{})

	snap := s.Take(context.Background())

	assert.Equal(t, "snap-1", snap.ID)
	assert.Equal(t, map[string]any{
		"total-orders": json.RawMessage(`5`),
		"top-states":   json.RawMessage(`["SP"]`),
	}, snap.Reports)
	assert.Equal(t, map[string]string{"peak-hours": "report peak-hours: timeout"}, snap.Errors)
}

func TestPublishSendsPersistentSnapshot(t *testing.T) {
	cat := &fakeCatalogue{rows: map[string]any{"total-orders": 5}}
	pub := &fakePublisher{}
	s := newTestSnapshotter(cat, pub)

	require.NoError(t, s.Publish(context.Background()))

	assert.Equal(t, 1, pub.calls)
	assert.Equal(t, "dwh.reports.snapshots", pub.routingKey)
	assert.True(t, pub.durable)
	assert.Equal(t, amqp.Persistent, pub.msg.DeliveryMode)
	assert.Equal(t, "snap-1", pub.msg.MessageId)

	var snap models.Snapshot
	require.NoError(t, json.Unmarshal(pub.msg.Body, &snap))
	assert.Equal(t, "snap-1", snap.ID)
	assert.Len(t, snap.Reports, 3)
	assert.Empty(t, snap.Errors)
}

func TestUnencodableReportDoesNotSinkSnapshot(t *testing.T) {
	cat := &fakeCatalogue{rows: map[string]any{
		"total-orders": int64(5),
		"peak-hours":   math.NaN(),
		"top-states":   []string{"SP"},
	}}
	pub := &fakePublisher{}
	s := newTestSnapshotter(cat, pub)

	require.NoError(t, s.Publish(context.Background()))

	var snap models.Snapshot
	require.NoError(t, json.Unmarshal(pub.msg.Body, &snap))
	assert.Len(t, snap.Reports, 2)
	assert.Contains(t, snap.Reports, "total-orders")
	assert.Contains(t, snap.Reports, "top-states")
	assert.Contains(t, snap.Errors["peak-hours"], "encode report peak-hours")
}

func TestPublishReturnsPublisherError(t *testing.T) {
	boom := errors.New("connection closed")
	s := newTestSnapshotter(&fakeCatalogue{}, &fakePublisher{err: boom})

	assert.ErrorIs(t, s.Publish(context.Background()), boom)
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	s := newTestSnapshotter(&fakeCatalogue{}, &fakePublisher{})

	err := s.Start("every tuesday-ish")
	assert.Error(t, err)
}
