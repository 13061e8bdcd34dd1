// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// Queue names used for booking lifecycle events.
const (
	BookingCreatedQueue   = "booking.created"
	BookingCancelledQueue = "booking.cancelled"
)

// BookingCreatedEvent is published after a booking transaction commits.
// It carries enough denormalized detail for downstream consumers to log
// or notify without querying the primary database.
type BookingCreatedEvent struct {
	BookingID      uint64 `json:"booking_id"`
	UserID         uint64 `json:"user_id"`
	RestaurantID   uint64 `json:"restaurant_id"`
	RestaurantName string `json:"restaurant_name"`
	TableID        uint64 `json:"table_id"`
	TableNumber    string `json:"table_number"`
	TimeSlotID     uint64 `json:"time_slot_id"`
	StartsAt       string `json:"starts_at"`
	EndsAt         string `json:"ends_at"`
	CreatedAt      string `json:"created_at"`
}

// BookingCancelledEvent is published after a cancellation commits and the
// slot has returned to the free pool.
type BookingCancelledEvent struct {
	BookingID   uint64 `json:"booking_id"`
	UserID      uint64 `json:"user_id"`
	TableID     uint64 `json:"table_id"`
	TimeSlotID  uint64 `json:"time_slot_id"`
	StartsAt    string `json:"starts_at"`
	EndsAt      string `json:"ends_at"`
	CancelledAt string `json:"cancelled_at"`
	ByStaff     bool   `json:"by_staff"`
}
