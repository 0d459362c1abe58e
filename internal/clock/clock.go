// Package clock normalizes time to the scheduler's fixed daily
// execution slot. Every timestamp the orchestrator writes is aligned
// to a slot boundary so that phase-end calculations are deterministic
// relative to actual runs, not wall-clock submission times.
package clock

import "time"

// Clock produces slot-aligned timestamps for a fixed UTC execution
// hour. It is pure and stateless; nowFn is injectable for tests.
type Clock struct {
	executionHour int
	nowFn         func() time.Time
}

// New creates a clock for the given UTC execution hour (0-23).
func New(executionHour int) *Clock {
	return NewWithNow(executionHour, time.Now)
}

// NewWithNow creates a clock with a custom time source.
func NewWithNow(executionHour int, nowFn func() time.Time) *Clock {
	return &Clock{executionHour: executionHour, nowFn: nowFn}
}

// ExecutionHour returns the configured UTC slot hour.
func (c *Clock) ExecutionHour() int {
	return c.executionHour
}

// Now returns the real current time in UTC.
func (c *Clock) Now() time.Time {
	return c.nowFn().UTC()
}

// NormalizedNow returns the most recent execution slot at or before
// the real current time, with sub-hour components zeroed. This is the
// value written into phase timestamps.
func (c *Clock) NormalizedNow() time.Time {
	now := c.Now()
	slot := c.SlotOnDay(now)
	if slot.After(now) {
		slot = slot.AddDate(0, 0, -1)
	}
	return slot
}

// NextSlotAfter returns the earliest execution slot strictly after t.
func (c *Clock) NextSlotAfter(t time.Time) time.Time {
	t = t.UTC()
	slot := c.SlotOnDay(t)
	if !slot.After(t) {
		slot = slot.AddDate(0, 0, 1)
	}
	return slot
}

// SnapForward returns the earliest execution slot at or after t. A
// time already on a slot boundary is returned unchanged.
func (c *Clock) SnapForward(t time.Time) time.Time {
	t = t.UTC()
	slot := c.SlotOnDay(t)
	if slot.Before(t) {
		slot = slot.AddDate(0, 0, 1)
	}
	return slot
}

// SlotOnDay returns the execution slot on t's calendar day (UTC).
func (c *Clock) SlotOnDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), c.executionHour, 0, 0, 0, time.UTC)
}
