package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixed(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNormalizedNow(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		hour     int
		expected time.Time
	}{
		{
			name:     "after today's slot",
			now:      time.Date(2025, 3, 10, 20, 30, 0, 0, time.UTC),
			hour:     18,
			expected: time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC),
		},
		{
			name:     "before today's slot falls back a day",
			now:      time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
			hour:     18,
			expected: time.Date(2025, 3, 9, 18, 0, 0, 0, time.UTC),
		},
		{
			name:     "exactly on the slot",
			now:      time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC),
			hour:     18,
			expected: time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC),
		},
		{
			name:     "midnight slot",
			now:      time.Date(2025, 3, 10, 0, 0, 1, 0, time.UTC),
			hour:     0,
			expected: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := NewWithNow(tt.hour, fixed(tt.now))
			assert.Equal(t, tt.expected, clk.NormalizedNow())
		})
	}
}

func TestNextSlotAfter(t *testing.T) {
	clk := New(18)

	tests := []struct {
		name     string
		t        time.Time
		expected time.Time
	}{
		{
			name:     "before today's slot",
			t:        time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
			expected: time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC),
		},
		{
			name:     "exactly on the slot advances to tomorrow",
			t:        time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC),
			expected: time.Date(2025, 3, 11, 18, 0, 0, 0, time.UTC),
		},
		{
			name:     "after today's slot",
			t:        time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC),
			expected: time.Date(2025, 3, 11, 18, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, clk.NextSlotAfter(tt.t))
		})
	}
}

func TestSnapForward(t *testing.T) {
	clk := New(18)

	// A slot boundary stays put, unlike NextSlotAfter.
	onSlot := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, onSlot, clk.SnapForward(onSlot))

	justAfter := onSlot.Add(time.Minute)
	assert.Equal(t, time.Date(2025, 3, 11, 18, 0, 0, 0, time.UTC), clk.SnapForward(justAfter))

	before := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, onSlot, clk.SnapForward(before))
}

func TestNowIsUTC(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	local := time.Date(2025, 3, 10, 14, 0, 0, 0, loc)
	clk := NewWithNow(18, fixed(local))

	assert.Equal(t, time.UTC, clk.Now().Location())
	assert.True(t, clk.Now().Equal(local))
}
