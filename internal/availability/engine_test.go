package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// at builds a UTC timestamp on a fixed day; tests only care about clock time.
func at(hour, min int) time.Time {
	return time.Date(2025, time.June, 1, hour, min, 0, 0, time.UTC)
}

func TestValidateInterval(t *testing.T) {
	cases := []struct {
		name  string
		start time.Time
		end   time.Time
		want  error
	}{
		{"exactly one hour", at(9, 0), at(10, 0), nil},
		{"longer than one hour", at(9, 0), at(11, 30), nil},
		{"one minute short", at(9, 0), at(9, 59), ErrTooShort},
		{"zero length", at(9, 0), at(9, 0), ErrInvalidRange},
		{"inverted", at(10, 0), at(9, 0), ErrInvalidRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateInterval(tc.start, tc.end)
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestOverlapsHalfOpen(t *testing.T) {
	// Touching endpoints do not overlap: [9,10) and [10,11) are disjoint.
	assert.False(t, Overlaps(at(9, 0), at(10, 0), at(10, 0), at(11, 0)))
	assert.False(t, Overlaps(at(10, 0), at(11, 0), at(9, 0), at(10, 0)))

	// Partial overlap in either direction.
	assert.True(t, Overlaps(at(9, 0), at(10, 0), at(9, 30), at(10, 30)))
	assert.True(t, Overlaps(at(9, 30), at(10, 30), at(9, 0), at(10, 0)))

	// Containment both ways.
	assert.True(t, Overlaps(at(9, 0), at(12, 0), at(10, 0), at(11, 0)))
	assert.True(t, Overlaps(at(10, 0), at(11, 0), at(9, 0), at(12, 0)))

	// Identical intervals.
	assert.True(t, Overlaps(at(9, 0), at(10, 0), at(9, 0), at(10, 0)))

	// Fully disjoint.
	assert.False(t, Overlaps(at(9, 0), at(10, 0), at(12, 0), at(13, 0)))
}

func TestCheckConflicts(t *testing.T) {
	reserved := []Interval{
		{SlotID: 7, Start: at(9, 30), End: at(10, 30)},
		{SlotID: 8, Start: at(14, 0), End: at(15, 0)},
	}

	t.Run("overlap with reserved slot rejected", func(t *testing.T) {
		err := CheckConflicts(at(9, 0), at(10, 0), reserved)
		assert.ErrorIs(t, err, ErrOverlapConflict)
	})

	t.Run("gap between reserved slots accepted", func(t *testing.T) {
		assert.NoError(t, CheckConflicts(at(11, 0), at(13, 0), reserved))
	})

	t.Run("touching a reserved slot accepted", func(t *testing.T) {
		assert.NoError(t, CheckConflicts(at(10, 30), at(11, 30), reserved))
	})

	t.Run("empty reserved set accepted", func(t *testing.T) {
		assert.NoError(t, CheckConflicts(at(9, 0), at(10, 0), nil))
	})

	t.Run("range errors take precedence over overlap", func(t *testing.T) {
		err := CheckConflicts(at(10, 0), at(9, 0), reserved)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidRange)
	})
}
