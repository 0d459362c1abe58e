package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		from PromptStatus
		to   PromptStatus
	}{
		{StatusScheduled, StatusActive},
		{StatusActive, StatusVoting},
		{StatusVoting, StatusCompleted},
		{StatusCompleted, StatusCompleted}, // absorbing
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			assert.Equal(t, tt.to, NextStatus(tt.from))
		})
	}
}

func TestNextStatusNeverRegresses(t *testing.T) {
	// Following NextStatus from any state always terminates at
	// COMPLETED within the four lifecycle steps.
	for _, start := range []PromptStatus{StatusScheduled, StatusActive, StatusVoting, StatusCompleted} {
		s := start
		for i := 0; i < 4; i++ {
			s = NextStatus(s)
		}
		assert.Equal(t, StatusCompleted, s)
	}
}
