// Package model holds enumerations shared across the repository layer.
package model

// Time slot status values as stored in time_slots.status.  A slot cycles
// between the two states: booking creation flips free -> reserved and
// booking cancellation flips reserved -> free.  Clients never set the
// status directly.
const (
    SlotStatusFree     = "free"     // slot is open for booking
    SlotStatusReserved = "reserved" // slot is bound to exactly one booking
)
