package pursuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTriggerContains(t *testing.T) {
	tests := []struct {
		trigger Trigger
		elapsed time.Duration
		want    bool
	}{
		{Trigger15Min, 14 * time.Minute, false},
		{Trigger15Min, 15 * time.Minute, true},
		{Trigger15Min, 29*time.Minute + 59*time.Second, true},
		{Trigger15Min, 30 * time.Minute, false},
		{Trigger2H, 119 * time.Minute, false},
		{Trigger2H, 120 * time.Minute, true},
		{Trigger2H, 150 * time.Minute, false},
		{TriggerEOD, 359 * time.Minute, false},
		{TriggerEOD, 360 * time.Minute, true},
		{TriggerEOD, 480 * time.Minute, true},
		{TriggerEOD, 481 * time.Minute, false},
		{Trigger("weekly"), time.Hour, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.trigger.Contains(tt.elapsed), "%s at %s", tt.trigger, tt.elapsed)
	}
}

func TestScarcityIncrement(t *testing.T) {
	assert.Equal(t, 15, Trigger15Min.ScarcityIncrement())
	assert.Equal(t, 15, Trigger2H.ScarcityIncrement())
	assert.Equal(t, 30, TriggerEOD.ScarcityIncrement())
}

func TestParseTrigger(t *testing.T) {
	for _, tr := range Triggers() {
		got, err := ParseTrigger(string(tr))
		assert.NoError(t, err)
		assert.Equal(t, tr, got)
	}
	_, err := ParseTrigger("1h")
	assert.Error(t, err)
}
