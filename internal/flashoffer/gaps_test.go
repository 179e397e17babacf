package flashoffer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)

func booking(startHour, startMin, minutes int) Booking {
	start := day.Add(time.Duration(startHour)*time.Hour + time.Duration(startMin)*time.Minute)
	return Booking{Start: start, End: start.Add(time.Duration(minutes) * time.Minute)}
}

func TestFindGapsNoBookingsReturnsWholeWindow(t *testing.T) {
	gaps := FindGaps(day, day.Add(Window), nil, time.Hour)
	require.Len(t, gaps, 1)
	assert.Equal(t, day, gaps[0].Start)
	assert.Equal(t, 24*time.Hour, gaps[0].Duration())
}

func TestFindGapsBackToBackLeavesNothing(t *testing.T) {
	bookings := []Booking{
		booking(0, 0, 60),  // 08:00-09:00
		booking(1, 0, 60),  // 09:00-10:00
		booking(2, 45, 45), // 10:45-11:30, the 45m hole is below the minimum
		booking(3, 30, 30), // 11:30-12:00
	}
	gaps := FindGaps(day, day.Add(4*time.Hour), bookings, time.Hour)
	assert.Empty(t, gaps)
}

func TestFindGapsBeforeBetweenAfter(t *testing.T) {
	bookings := []Booking{
		booking(6, 0, 60),  // 14:00-15:00
		booking(2, 0, 60),  // 10:00-11:00, unsorted on purpose
		booking(3, 30, 60), // 11:30-12:30 leaves a 30m hole
	}
	gaps := FindGaps(day, day.Add(10*time.Hour), bookings, time.Hour)
	require.Len(t, gaps, 3)
	assert.Equal(t, Gap{Start: day, End: day.Add(2 * time.Hour)}, gaps[0])
	assert.Equal(t, Gap{Start: day.Add(4*time.Hour + 30*time.Minute), End: day.Add(6 * time.Hour)}, gaps[1])
	assert.Equal(t, Gap{Start: day.Add(7 * time.Hour), End: day.Add(10 * time.Hour)}, gaps[2])
}

func TestFindGapsMergesOverlapsAndClipsWindow(t *testing.T) {
	bookings := []Booking{
		{Start: day.Add(-time.Hour), End: day.Add(time.Hour)}, // 07:00-09:00
		booking(1, 30, 120), // 09:30-11:30
		booking(2, 0, 30),   // 10:00-10:30, inside the previous one
	}
	gaps := FindGaps(day, day.Add(6*time.Hour), bookings, 30*time.Minute)
	require.Len(t, gaps, 2)
	assert.Equal(t, Gap{Start: day.Add(time.Hour), End: day.Add(90 * time.Minute)}, gaps[0])
	assert.Equal(t, Gap{Start: day.Add(3*time.Hour + 30*time.Minute), End: day.Add(6 * time.Hour)}, gaps[1])
}

func TestSplitSlots(t *testing.T) {
	gaps := []Gap{
		{Start: day, End: day.Add(150 * time.Minute)},
		{Start: day.Add(5 * time.Hour), End: day.Add(5*time.Hour + 59*time.Minute)},
	}
	slots := SplitSlots(gaps, time.Hour)
	require.Len(t, slots, 2)
	assert.Equal(t, day.Add(time.Hour), slots[1].Start)
	assert.Nil(t, SplitSlots(gaps, 0))
}
