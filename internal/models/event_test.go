package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionStatus(t *testing.T) {
	tests := []struct {
		from EventStatus
		to   EventStatus
		want bool
	}{
		{EventUpcoming, EventLive, true},
		{EventUpcoming, EventCompleted, true},
		{EventLive, EventCompleted, true},
		{EventLive, EventUpcoming, false},
		{EventCompleted, EventLive, false},
		{EventCompleted, EventUpcoming, false},
		{EventUpcoming, EventUpcoming, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransitionStatus(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidEventStatus("live"))
	assert.False(t, ValidEventStatus("archived"))
	assert.True(t, ValidAccessLevel("institution_only"))
	assert.False(t, ValidAccessLevel("private"))
	assert.True(t, ValidRole("platform_admin"))
	assert.False(t, ValidRole("superuser"))
}
