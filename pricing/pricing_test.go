package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFare(t *testing.T) {
	tests := []struct {
		name        string
		startInZone bool
		endInZone   bool
		durationMs  int64
		expected    int
	}{
		{
			name:        "zone to zone ten minutes",
			startInZone: true,
			endInZone:   true,
			durationMs:  600000,
			expected:    45, // 30 + 2.5*10 - 10
		},
		{
			name:        "free parking to free parking instant",
			startInZone: false,
			endInZone:   false,
			durationMs:  0,
			expected:    50, // 30 + 20
		},
		{
			name:        "zone to free parking instant",
			startInZone: true,
			endInZone:   false,
			durationMs:  0,
			expected:    50, // same surcharge as free-to-free
		},
		{
			name:        "free parking back to zone instant",
			startInZone: false,
			endInZone:   true,
			durationMs:  0,
			expected:    10, // 30 - 20
		},
		{
			name:        "zone to zone one hour",
			startInZone: true,
			endInZone:   true,
			durationMs:  3600000,
			expected:    170, // 30 + 2.5*60 - 10
		},
		{
			name:        "fractional cost floors down",
			startInZone: true,
			endInZone:   true,
			durationMs:  90000, // 1.5 min -> 3.75
			expected:    23,    // floor(30 + 3.75 - 10)
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fare(tt.startInZone, tt.endInZone, tt.durationMs)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFareCheapestRide(t *testing.T) {
	// With the current constants the return-to-zone reward is the largest
	// deduction, so 10 is the cheapest possible ride.
	assert.Equal(t, 10, Fare(false, true, 0))
	assert.GreaterOrEqual(t, Fare(false, true, 1), 10)
}
