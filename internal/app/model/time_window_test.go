package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeWindow_StartsAt(t *testing.T) {
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.Local)
	window := &TimeWindow{Date: date, StartTime: "18:30", EndTime: "20:00"}

	assert.Equal(t, time.Date(2026, 3, 14, 18, 30, 0, 0, time.Local), window.StartsAt())
	assert.Equal(t, time.Date(2026, 3, 14, 20, 0, 0, 0, time.Local), window.EndsAt())

	// A malformed stored time never drifts into the future of its date.
	window.StartTime = "6pm"
	assert.Equal(t, date, window.StartsAt())
}

func TestValidHHMM(t *testing.T) {
	for _, ok := range []string{"00:00", "09:30", "14:00", "23:59"} {
		assert.True(t, ValidHHMM(ok), ok)
	}
	for _, bad := range []string{"", "6pm", "9:30", "24:00", "18:70", "1400", "14:00:00"} {
		assert.False(t, ValidHHMM(bad), bad)
	}
}
