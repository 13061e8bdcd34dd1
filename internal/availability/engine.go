// Package availability implements the slot validation rules shared by the
// admin slot endpoints and the booking transaction: interval ordering,
// minimum duration and the no-overlap rule among reserved slots of a table.
// The package is pure: it never touches the database, so the same rule
// text runs everywhere a slot interval is checked.
package availability

import (
    "errors"
    "time"
)

// MinSlotDuration is the shortest interval a time slot may span.
const MinSlotDuration = time.Hour

// Validation errors.  Handlers map these to 400 (range, duration) and 409
// (overlap) responses.
var (
    ErrInvalidRange    = errors.New("start_time must be before end_time")
    ErrTooShort        = errors.New("slot must span at least one hour")
    ErrOverlapConflict = errors.New("slot overlaps a reserved slot on this table")
)

// Interval is a half-open time range [Start, End) belonging to a slot.
// SlotID identifies the slot the interval came from so callers can report
// which reservation caused a conflict.
type Interval struct {
    SlotID uint64
    Start  time.Time
    End    time.Time
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share any instant: aStart < bEnd && bStart < aEnd.
// Touching endpoints (a.End == b.Start) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
    return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// ValidateInterval checks ordering and minimum duration of a proposed slot
// interval.  It returns ErrInvalidRange when start >= end and ErrTooShort
// when the span is under MinSlotDuration.
func ValidateInterval(start, end time.Time) error {
    if !start.Before(end) {
        return ErrInvalidRange
    }
    if end.Sub(start) < MinSlotDuration {
        return ErrTooShort
    }
    return nil
}

// CheckConflicts validates the interval and then tests it against the
// reserved intervals of the same table.  Callers must supply only *other*
// reserved slots (excluding the slot being edited, when updating in
// place); free slots are deliberately not considered, so overlapping free
// slots can coexist as alternative bookable durations over one window.
// The first overlapping interval aborts the check with ErrOverlapConflict.
func CheckConflicts(start, end time.Time, reserved []Interval) error {
    if err := ValidateInterval(start, end); err != nil {
        return err
    }
    for _, iv := range reserved {
        if Overlaps(start, end, iv.Start, iv.End) {
            return ErrOverlapConflict
        }
    }
    return nil
}
