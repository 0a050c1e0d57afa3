package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithin(t *testing.T) {
	tests := []struct {
		name           string
		clickX, clickY int
		want           bool
	}{
		{"exact hit", 100, 100, true},
		{"corner of the window", 125, 125, true},
		{"one past on x", 126, 100, false},
		{"opposite corner", 75, 75, true},
		{"one past on negative x", 74, 100, false},
		{"one past on y", 100, 126, false},
		{"edge of window on y", 100, 125, true},
		// The corner (125,125) is ~35px away euclidean; the square window
		// accepts it where a circular check would not.
		{"corner beyond circular radius", 124, 124, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Within(tt.clickX, tt.clickY, 100, 100, 25))
		})
	}
}

func TestWithinCustomTolerance(t *testing.T) {
	assert.True(t, Within(10, 0, 0, 0, 10))
	assert.False(t, Within(11, 0, 0, 0, 10))
	assert.False(t, Within(1, 0, 0, 0, 0))
	assert.True(t, Within(0, 0, 0, 0, 0))
}
