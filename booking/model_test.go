package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	t.Run("past date reads as completed", func(t *testing.T) {
		assert.Equal(t, StatusCompleted, EffectiveStatus(StatusPending, past, now))
		assert.Equal(t, StatusCompleted, EffectiveStatus(StatusConfirmed, past, now))
		assert.Equal(t, StatusCompleted, EffectiveStatus(StatusInProgress, past, now))
	})

	t.Run("cancelled stays cancelled regardless of date", func(t *testing.T) {
		assert.Equal(t, StatusCancelled, EffectiveStatus(StatusCancelled, past, now))
		assert.Equal(t, StatusCancelled, EffectiveStatus(StatusCancelled, future, now))
	})

	t.Run("future date keeps the stored status", func(t *testing.T) {
		assert.Equal(t, StatusPending, EffectiveStatus(StatusPending, future, now))
		assert.Equal(t, StatusConfirmed, EffectiveStatus(StatusConfirmed, future, now))
	})
}

func TestDerive(t *testing.T) {
	now := time.Now()

	b := Booking{Status: StatusPending, ScheduledDate: now.Add(-time.Hour)}
	b.Derive(now)
	assert.Equal(t, StatusCompleted, b.EffectiveStatus)
	// Derivation is a computed view; the stored status is untouched.
	assert.Equal(t, StatusPending, b.Status)
}

func TestFeeApplies(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("inside the window the fee is due", func(t *testing.T) {
		assert.True(t, FeeApplies(now.Add(10*time.Hour), now, 48))
	})

	t.Run("outside the window cancellation is free", func(t *testing.T) {
		assert.False(t, FeeApplies(now.Add(72*time.Hour), now, 48))
	})

	t.Run("boundary is exclusive", func(t *testing.T) {
		assert.False(t, FeeApplies(now.Add(48*time.Hour), now, 48))
		assert.True(t, FeeApplies(now.Add(48*time.Hour-time.Minute), now, 48))
	})
}
