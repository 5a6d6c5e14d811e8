package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheGetPut(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewCache(time.Minute)
	c.now = func() time.Time { return now }

	_, ok := c.Get(PeakHours, "v1")
	assert.False(t, ok)

	c.Put(PeakHours, "v1", []int{1, 2})

	rows, ok := c.Get(PeakHours, "v1")
	assert.True(t, ok)
	assert.Equal(t, []int{1, 2}, rows)

	_, ok = c.Get(PeakHours, "v2")
	assert.False(t, ok, "other version")
	_, ok = c.Get(TopStates, "v1")
	assert.False(t, ok, "other report")
}

func TestCacheExpiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewCache(time.Minute)
	c.now = func() time.Time { return now }

	c.Put(PeakHours, "v1", 1)
	c.Put(TopStates, "v1", 2)

	now = now.Add(time.Minute)
	_, ok := c.Get(PeakHours, "v1")
	assert.True(t, ok, "still valid at the boundary")

	now = now.Add(time.Second)
	_, ok = c.Get(PeakHours, "v1")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	// Put sweeps whatever else has expired
	c.Put(SeasonOrders, "v2", 3)
	assert.Equal(t, 1, c.Len())
}
