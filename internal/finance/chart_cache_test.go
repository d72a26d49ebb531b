package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChartCache(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := newChartCache(time.Minute)
	c.now = func() time.Time { return now }

	_, ok := c.get("k")
	assert.False(t, ok)

	img := []byte{1, 2, 3}
	c.set("k", img)
	img[0] = 9

	got, ok := c.get("k")
	assert.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, got, "cache keeps its own copy")
	got[1] = 9
	again, _ := c.get("k")
	assert.Equal(t, []byte{1, 2, 3}, again)

	now = now.Add(time.Minute)
	_, ok = c.get("k")
	assert.False(t, ok, "entry expires after ttl")
	assert.Empty(t, c.entries)
}

func TestChartCacheSetSweepsExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := newChartCache(time.Minute)
	c.now = func() time.Time { return now }

	c.set("old-1", []byte{1})
	c.set("old-2", []byte{2})
	now = now.Add(30 * time.Second)
	c.set("young", []byte{3})

	now = now.Add(45 * time.Second)
	c.set("new", []byte{4})

	assert.Len(t, c.entries, 2)
	assert.Contains(t, c.entries, "young")
	assert.Contains(t, c.entries, "new")
}
