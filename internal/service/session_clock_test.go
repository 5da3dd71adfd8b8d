package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpiredBoundary(t *testing.T) {
	clock := NewSessionClock()
	limit := 10 * time.Minute

	assert.False(t, clock.Expired(9*time.Minute+59*time.Second, limit))
	// 恰好用满限时仍算有效提交
	assert.False(t, clock.Expired(10*time.Minute, limit))
	assert.True(t, clock.Expired(10*time.Minute+time.Second, limit))
}

func TestExpiredNoLimit(t *testing.T) {
	clock := NewSessionClock()

	assert.False(t, clock.Expired(100*time.Hour, 0))
	assert.False(t, clock.Expired(100*time.Hour, -time.Minute))
}

func TestElapsedUsesInjectedNow(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := SessionClock{Now: func() time.Time { return base.Add(42 * time.Second) }}

	assert.Equal(t, 42*time.Second, clock.Elapsed(base))
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00", FormatClock(0))
	assert.Equal(t, "00:09", FormatClock(9*time.Second))
	assert.Equal(t, "01:05", FormatClock(65*time.Second))
	assert.Equal(t, "20:00", FormatClock(20*time.Minute))
	// 负值（时钟回拨等）钳到零
	assert.Equal(t, "00:00", FormatClock(-3*time.Second))
}
